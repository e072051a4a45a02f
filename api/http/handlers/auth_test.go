package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/resumeflow/pkg/auth"
	"github.com/artem13815/resumeflow/pkg/security/jwt"
)

type stubAuth struct {
	user auth.User
	gen  *jwt.Generator
}

func (s *stubAuth) Register(ctx context.Context, email, password string) (auth.AuthResult, error) {
	if email == s.user.Email {
		return auth.AuthResult{}, auth.ErrUserAlreadyExists
	}
	if len(password) < 8 {
		return auth.AuthResult{}, auth.ErrWeakPassword
	}
	u := auth.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	tok, err := s.gen.Generate(ctx, u)
	return auth.AuthResult{User: u, Token: tok}, err
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (auth.AuthResult, error) {
	if email != s.user.Email || password != "correct horse" {
		return auth.AuthResult{}, auth.ErrInvalidCredentials
	}
	tok, err := s.gen.Generate(ctx, s.user)
	return auth.AuthResult{User: s.user, Token: tok}, err
}

func (s *stubAuth) Me(_ context.Context, id uuid.UUID) (auth.User, error) {
	if id != s.user.ID {
		return auth.User{}, auth.ErrNotFound
	}
	return s.user, nil
}

func newAuthApp() *fiber.App {
	gen := jwt.NewGenerator(testSecret, testIssuer, time.Hour)
	uc := &stubAuth{user: auth.User{ID: uuid.New(), Email: "jane@example.com", CreatedAt: time.Now()}, gen: gen}
	h := NewAuthHandler(uc, SessionCookie{Name: "session", TTL: time.Hour})
	requireAuth := jwt.NewAuthMiddleware(jwt.MiddlewareConfig{Verifier: jwt.NewVerifier(testSecret, testIssuer), CookieName: "session"})

	app := fiber.New()
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/logout", h.Logout)
	app.Get("/auth/me", requireAuth, h.Me)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionAndMeReadsIt(t *testing.T) {
	app := newAuthApp()

	resp := postJSON(t, app, "/auth/login", `{"email":"jane@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: cookie.Value})
	me, err := app.Test(req, -1)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(me.Body).Decode(&out))
	assert.Equal(t, "jane@example.com", out["email"])
}

func TestLoginWrongPassword(t *testing.T) {
	resp := postJSON(t, newAuthApp(), "/auth/login", `{"email":"jane@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
}

func TestRegisterErrors(t *testing.T) {
	app := newAuthApp()
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed", body: `{`, want: http.StatusBadRequest},
		{name: "missing fields", body: `{"email":""}`, want: http.StatusBadRequest},
		{name: "weak password", body: `{"email":"new@example.com","password":"short"}`, want: http.StatusBadRequest},
		{name: "duplicate", body: `{"email":"jane@example.com","password":"long enough"}`, want: http.StatusConflict},
		{name: "created", body: `{"email":"new@example.com","password":"long enough"}`, want: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/auth/register", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	resp := postJSON(t, newAuthApp(), "/auth/logout", ``)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestMeWithoutSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp, err := newAuthApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
