package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/resumeflow/api/http/presenter"
	"github.com/artem13815/resumeflow/pkg/document"
	"github.com/artem13815/resumeflow/pkg/ingest"
	"github.com/artem13815/resumeflow/pkg/resume"
	"github.com/artem13815/resumeflow/pkg/security/jwt"
)

const (
	msgProcessFailed = "Failed to process resume content"
	msgParseFailed   = "Failed to parse PDF document"
	msgSaveFailed    = "Failed to save resume"
)

type IngestHandler struct {
	svc *ingest.Service
	log *slog.Logger
}

func NewIngestHandler(svc *ingest.Service, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{svc: svc, log: logger}
}

type ingestResponse struct {
	Success    bool                    `json:"success"`
	ResumeID   string                  `json:"resumeId"`
	File       ingest.FileInfo         `json:"file"`
	ParsedData resume.StructuredResume `json:"parsedData"`
	Preview    ingest.Preview          `json:"preview"`
}

// Ingest принимает PDF-резюме, извлекает текст, структурирует его через LLM и сохраняет.
// @Summary Загрузить и распознать резюме
// @Description Порядок проверок: наличие файла, тип PDF, размер (до 10MB), авторизация.
// @Tags    Резюме
// @Accept  multipart/form-data
// @Produce json
// @Param   file formData file true "Файл резюме (PDF)"
// @Param   lastModified formData int false "Время изменения файла на клиенте, мс с эпохи"
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} ingestResponse
// @Failure 400 {object} presenter.ErrorResponse "Ошибка валидации файла"
// @Failure 401 {object} presenter.ErrorResponse "Authentication required"
// @Failure 500 {object} presenter.ErrorResponse "Ошибка обработки или сохранения"
// @Router  /resumes/ingest [post]
func (h *IngestHandler) Ingest(c *fiber.Ctx) error {
	res, err := h.svc.Ingest(c.Context(), jwt.PrincipalFrom(c), uploadFrom(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, ingestResponse{
		Success:    true,
		ResumeID:   res.ResumeID.String(),
		File:       res.File,
		ParsedData: res.ParsedData,
		Preview:    res.Preview,
	})
}

func uploadFrom(c *fiber.Ctx) *ingest.Upload {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil || fh.Filename == "" {
		return nil
	}
	up := &ingest.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
	if v := strings.TrimSpace(c.FormValue("lastModified")); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			up.LastModified = time.UnixMilli(ms)
		}
	}
	return up
}

func (h *IngestHandler) writeError(c *fiber.Ctx, err error) error {
	var ve *ingest.ValidationError
	switch {
	case errors.As(err, &ve):
		return presenter.Error(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, ingest.ErrUnauthorized):
		return presenter.Error(c, http.StatusUnauthorized, jwt.AuthMessage)
	case errors.Is(err, document.ErrDocumentParse):
		return presenter.Error(c, http.StatusInternalServerError, msgParseFailed)
	case errors.Is(err, resume.ErrExtractionService),
		errors.Is(err, resume.ErrEmptyCompletion),
		errors.Is(err, resume.ErrMalformedExtraction):
		return presenter.Error(c, http.StatusInternalServerError, msgProcessFailed)
	case errors.Is(err, ingest.ErrPersistence):
		return presenter.Error(c, http.StatusInternalServerError, msgSaveFailed)
	default:
		h.log.Error("ingest resume", "error", err)
		return presenter.Error(c, http.StatusInternalServerError, msgProcessFailed)
	}
}
