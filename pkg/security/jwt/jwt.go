package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/artem13815/resumeflow/pkg/auth"
)

// ErrInvalidToken is returned for malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

type Generator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewGenerator(secret, issuer string, ttl time.Duration) *Generator {
	return &Generator{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Claims включает стандартные поля и email пользователя.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (g *Generator) TTL() time.Duration { return g.ttl }

func (g *Generator) Generate(ctx context.Context, user auth.User) (string, error) {
	now := g.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
		Email: user.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

// Verifier validates HS256 session tokens and turns them into principals.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, expectedIssuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: expectedIssuer}
}

func (v *Verifier) Verify(tokenStr string) (auth.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !token.Valid {
		return auth.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return auth.Principal{}, ErrInvalidToken
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return auth.Principal{}, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}
	return auth.Principal{UserID: id, Email: claims.Email}, nil
}
