package auth

import "context"

// TokenGenerator issues the session token returned by Register and Login.
type TokenGenerator interface {
	Generate(ctx context.Context, user User) (string, error)
}
