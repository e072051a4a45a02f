package jwt

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/resumeflow/pkg/auth"
)

const principalKey = "principal"

// AuthMessage is the body text of every 401 written by the middleware.
const AuthMessage = "Authentication required"

// MiddlewareConfig configures NewAuthMiddleware.
type MiddlewareConfig struct {
	Verifier   *Verifier
	CookieName string
	// Optional lets requests without a valid session through with no principal set.
	Optional bool
}

// NewAuthMiddleware returns a Fiber middleware that validates the session cookie
// or an "Authorization: Bearer <token>" header (HS256).
// On success sets the principal into c.Locals and user id (subject) into c.Locals("userId").
func NewAuthMiddleware(cfg MiddlewareConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFromRequest(c, cfg.CookieName)
		if tokenStr == "" {
			return deny(c, cfg.Optional)
		}
		p, err := cfg.Verifier.Verify(tokenStr)
		if err != nil {
			return deny(c, cfg.Optional)
		}
		c.Locals(principalKey, &p)
		c.Locals("userId", p.UserID.String())
		return c.Next()
	}
}

// PrincipalFrom returns the principal set by the middleware, or nil.
func PrincipalFrom(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(principalKey).(*auth.Principal)
	return p
}

func deny(c *fiber.Ctx, optional bool) error {
	if optional {
		return c.Next()
	}
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": AuthMessage})
}

func tokenFromRequest(c *fiber.Ctx, cookieName string) string {
	if cookieName != "" {
		if v := strings.TrimSpace(c.Cookies(cookieName)); v != "" {
			return v
		}
	}
	authHeader := strings.TrimSpace(c.Get("Authorization"))
	if authHeader == "" {
		return ""
	}
	// Support both "Bearer <token>" and "<token>" (no prefix).
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return authHeader
}
