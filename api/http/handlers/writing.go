package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/resumeflow/api/http/presenter"
	"github.com/artem13815/resumeflow/pkg/writing"
)

type Writer interface {
	Optimize(ctx context.Context, text string) (string, error)
	CoverLetter(ctx context.Context, req writing.CoverLetterRequest) (string, error)
	Email(ctx context.Context, req writing.EmailRequest) (string, error)
	OptimizeExperience(ctx context.Context, req writing.ExperienceRequest) (string, error)
	Interview(ctx context.Context, req writing.InterviewRequest) (writing.InterviewTurn, error)
}

// WritingHandler exposes LLM rewriting endpoints.
type WritingHandler struct {
	svc Writer
	log *slog.Logger
}

func NewWritingHandler(svc Writer, logger *slog.Logger) *WritingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WritingHandler{svc: svc, log: logger}
}

type optimizeRequest struct {
	Text string `json:"text"`
}

// Optimize переписывает профессиональное резюме (summary) под ATS.
// @Summary Улучшить текст резюме
// @Tags    AI
// @Accept  json
// @Produce json
// @Param   input body optimizeRequest true "Текст"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /ai/optimize [post]
func (h *WritingHandler) Optimize(c *fiber.Ctx) error {
	var req optimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	out, err := h.svc.Optimize(c.Context(), req.Text)
	if err != nil {
		return h.fail(c, err, "Failed to optimize text")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"optimizedText": out})
}

// CoverLetter генерирует сопроводительное письмо под вакансию.
// @Summary Сопроводительное письмо
// @Tags    AI
// @Accept  json
// @Produce json
// @Param   input body writing.CoverLetterRequest true "Имя и описание вакансии"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /ai/cover-letter [post]
func (h *WritingHandler) CoverLetter(c *fiber.Ctx) error {
	var req writing.CoverLetterRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	out, err := h.svc.CoverLetter(c.Context(), req)
	if err != nil {
		return h.fail(c, err, "Failed to generate cover letter")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"coverLetter": out})
}

// Email генерирует письмо для этапа отклика (follow-up, интервью, оффер).
// @Summary Письмо работодателю
// @Tags    AI
// @Accept  json
// @Produce json
// @Param   input body writing.EmailRequest true "Информация о вакансии, этап и тон"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /ai/email [post]
func (h *WritingHandler) Email(c *fiber.Ctx) error {
	var req writing.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	out, err := h.svc.Email(c.Context(), req)
	if err != nil {
		return h.fail(c, err, "Failed to generate email")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"email": out})
}

// OptimizeExperience усиливает описание одного места работы под роль и компанию.
// @Summary Улучшить описание опыта
// @Tags    AI
// @Accept  json
// @Produce json
// @Param   input body writing.ExperienceRequest true "Текст, должность и компания"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /ai/optimize-experience [post]
func (h *WritingHandler) OptimizeExperience(c *fiber.Ctx) error {
	var req writing.ExperienceRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	out, err := h.svc.OptimizeExperience(c.Context(), req)
	if err != nil {
		return h.fail(c, err, "Failed to optimize experience description")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"optimizedText": out})
}

// Interview ведёт тренировочное собеседование: первый вопрос либо оценка ответа и следующий вопрос.
// @Summary Тренировочное собеседование
// @Tags    AI
// @Accept  json
// @Produce json
// @Param   input body writing.InterviewRequest true "Отрасль, позиция и предыдущий ход"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} writing.InterviewTurn
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /ai/interview [post]
func (h *WritingHandler) Interview(c *fiber.Ctx) error {
	var req writing.InterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	turn, err := h.svc.Interview(c.Context(), req)
	if errors.Is(err, writing.ErrInvalidInterview) {
		return h.fail(c, err, "Invalid response format from AI")
	}
	if err != nil {
		return h.fail(c, err, "Failed to generate interview content")
	}
	return presenter.JSON(c, http.StatusOK, turn)
}

func (h *WritingHandler) fail(c *fiber.Ctx, err error, msg string) error {
	var ve writing.ErrValidation
	if errors.As(err, &ve) {
		return presenter.Error(c, http.StatusBadRequest, ve.Error())
	}
	h.log.Error(msg, "path", c.Path(), "error", err)
	return presenter.Error(c, http.StatusInternalServerError, msg)
}
