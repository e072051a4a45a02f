package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/artem13815/resumeflow/api/http/presenter"
	"github.com/artem13815/resumeflow/pkg/resume"
	"github.com/artem13815/resumeflow/pkg/security/jwt"
)

// ResumeLibrary is the owner-scoped read/delete side of persistence.Gateway.
type ResumeLibrary interface {
	ListResumes(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]resume.Record, error)
	GetResume(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, error)
	OpenFile(ctx context.Context, ownerID, id uuid.UUID) (resume.Record, io.ReadCloser, error)
	DeleteResume(ctx context.Context, ownerID, id uuid.UUID) error
}

type ResumesHandler struct {
	lib ResumeLibrary
	log *slog.Logger
}

func NewResumesHandler(lib ResumeLibrary, logger *slog.Logger) *ResumesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumesHandler{lib: lib, log: logger}
}

// List возвращает резюме пользователя, новые первыми.
// @Summary Список резюме
// @Tags    Резюме
// @Produce json
// @Param   limit  query int false "Размер страницы (1..200)"
// @Param   offset query int false "Смещение"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {array} resume.Record
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /resumes [get]
func (h *ResumesHandler) List(c *fiber.Ctx) error {
	p := jwt.PrincipalFrom(c)
	if p == nil {
		return presenter.Error(c, http.StatusUnauthorized, jwt.AuthMessage)
	}
	limit, offset := parseLimitOffset(c)
	items, err := h.lib.ListResumes(c.Context(), p.UserID, limit, offset)
	if err != nil {
		h.log.Error("list resumes", "user_id", p.UserID, "error", err)
		return presenter.Error(c, http.StatusInternalServerError, "failed to list resumes")
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// Get возвращает одно резюме со структурой и исходным текстом.
// @Summary Получить резюме
// @Tags    Резюме
// @Produce json
// @Param   id path string true "ID резюме"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} resume.Record
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [get]
func (h *ResumesHandler) Get(c *fiber.Ctx) error {
	p, id, ok, err := h.target(c)
	if !ok {
		return err
	}
	rec, err := h.lib.GetResume(c.Context(), p, id)
	if err != nil {
		return h.lookupError(c, "get resume", err)
	}
	return presenter.JSON(c, http.StatusOK, rec)
}

// File отдаёт исходный файл резюме.
// @Summary Скачать файл резюме
// @Tags    Резюме
// @Produce application/pdf
// @Param   id path string true "ID резюме"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id}/file [get]
func (h *ResumesHandler) File(c *fiber.Ctx) error {
	p, id, ok, err := h.target(c)
	if !ok {
		return err
	}
	rec, rc, err := h.lib.OpenFile(c.Context(), p, id)
	if err != nil {
		return h.lookupError(c, "open resume file", err)
	}
	c.Set(fiber.HeaderContentType, rec.FileType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename*=UTF-8''%s", url.PathEscape(rec.FileName)))
	return c.SendStream(rc)
}

// Delete удаляет запись и файл резюме.
// @Summary Удалить резюме
// @Tags    Резюме
// @Param   id path string true "ID резюме"
// @Security CookieAuth
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [delete]
func (h *ResumesHandler) Delete(c *fiber.Ctx) error {
	p, id, ok, err := h.target(c)
	if !ok {
		return err
	}
	if err := h.lib.DeleteResume(c.Context(), p, id); err != nil {
		return h.lookupError(c, "delete resume", err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// target resolves the caller and the :id param. When ok is false the error response
// is already written and err is the result of writing it.
func (h *ResumesHandler) target(c *fiber.Ctx) (owner, id uuid.UUID, ok bool, err error) {
	p := jwt.PrincipalFrom(c)
	if p == nil {
		return uuid.Nil, uuid.Nil, false, presenter.Error(c, http.StatusUnauthorized, jwt.AuthMessage)
	}
	id, perr := uuid.Parse(c.Params("id"))
	if perr != nil {
		return uuid.Nil, uuid.Nil, false, presenter.Error(c, http.StatusBadRequest, "invalid resume id")
	}
	return p.UserID, id, true, nil
}

func (h *ResumesHandler) lookupError(c *fiber.Ctx, op string, err error) error {
	if errors.Is(err, resume.ErrNotFound) {
		return presenter.Error(c, http.StatusNotFound, "resume not found")
	}
	h.log.Error(op, "error", err)
	return presenter.Error(c, http.StatusInternalServerError, "failed to "+op)
}
