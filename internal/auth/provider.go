// Package auth is the identity boundary: providers that sign principals in
// and out, and the resolver that maps a principal to its staff record.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrPrincipalExists    = errors.New("principal already exists")
	ErrPrincipalNotFound  = errors.New("principal not found")
)

// Principal is the authenticated identity issued by a provider.
type Principal struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal Principal `json:"principal"`
}

// NewPrincipal describes an identity to create. UID is optional.
type NewPrincipal struct {
	UID         string
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
}

type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*Principal, error)
	CreatePrincipal(ctx context.Context, p NewPrincipal) (string, error)
	DeletePrincipal(ctx context.Context, uid string) error
}

// GeneratePassword returns a random initial password for accounts created by
// an administrator.
func GeneratePassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
