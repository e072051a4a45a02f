package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/resumeflow/api/http/handlers"
)

// Handlers groups everything Register wires.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Ingest  *handlers.IngestHandler
	Resumes *handlers.ResumesHandler
	Writing *handlers.WritingHandler
}

// Register wires all HTTP routes onto given Fiber app.
// requireAuth rejects anonymous callers; optionalAuth only resolves the principal.
func Register(app *fiber.App, h Handlers, requireAuth, optionalAuth fiber.Handler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", h.Health.Health)
	v1.Get("/ready", h.Health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", h.Auth.Register)
	a.Post("/login", h.Auth.Login)
	a.Post("/logout", h.Auth.Logout)
	a.Get("/me", requireAuth, h.Auth.Me)

	// Ingest validates the upload before the session, so it only resolves the principal here.
	v1.Post("/resumes/ingest", optionalAuth, h.Ingest.Ingest)

	rs := v1.Group("/resumes")
	rs.Get("/", requireAuth, h.Resumes.List)
	rs.Get("/:id", requireAuth, h.Resumes.Get)
	rs.Get("/:id/file", requireAuth, h.Resumes.File)
	rs.Delete("/:id", requireAuth, h.Resumes.Delete)

	ai := v1.Group("/ai")
	ai.Post("/optimize", requireAuth, h.Writing.Optimize)
	ai.Post("/cover-letter", requireAuth, h.Writing.CoverLetter)
	ai.Post("/email", requireAuth, h.Writing.Email)
	ai.Post("/optimize-experience", requireAuth, h.Writing.OptimizeExperience)
	ai.Post("/interview", requireAuth, h.Writing.Interview)
}
