package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/resumeflow/pkg/health"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct{ svc health.ReadinessUseCase }

func NewHealthHandler(svc health.ReadinessUseCase) *HealthHandler { return &HealthHandler{svc: svc} }

// Health: basic liveness check.
// @Summary Liveness probe
// @Tags    health
// @Produce json
// @Success 200 {object} map[string]string
// @Router  /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Ready: readiness check of PostgreSQL and the object store.
// @Summary Readiness probe
// @Tags    health
// @Produce json
// @Success 200 {object} health.Report
// @Failure 503 {object} health.Report
// @Router  /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	rep, err := h.svc.Ready(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(rep)
	}
	return c.Status(fiber.StatusOK).JSON(rep)
}
