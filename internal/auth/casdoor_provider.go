package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// casdoorClient is the part of the casdoor SDK client the provider uses.
type casdoorClient interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
	AddUser(user *casdoorsdk.User) (bool, error)
	DeleteUser(user *casdoorsdk.User) (bool, error)
}

// CasdoorProvider delegates identities to a casdoor server. Sign-in uses the
// OAuth2 password grant of the configured application.
type CasdoorProvider struct {
	client       casdoorClient
	oauth        *oauth2.Config
	organization string
	revocations  *cache.Revocations
	logger       *slog.Logger
	now          func() time.Time
}

func NewCasdoorProvider(cfg config.CasdoorConfig, revocations *cache.Revocations, logger *slog.Logger) (*CasdoorProvider, error) {
	if cfg.Endpoint == "" || cfg.ClientID == "" {
		return nil, errors.New("casdoor endpoint and client id are required")
	}

	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return newCasdoorProvider(client, cfg, revocations, logger), nil
}

func newCasdoorProvider(client casdoorClient, cfg config.CasdoorConfig, revocations *cache.Revocations, logger *slog.Logger) *CasdoorProvider {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	return &CasdoorProvider{
		client: client,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint + "/login/oauth/authorize",
				TokenURL:  endpoint + "/api/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"read"},
		},
		organization: cfg.Organization,
		revocations:  revocations,
		logger:       logger,
		now:          time.Now,
	}
}

var _ Provider = (*CasdoorProvider)(nil)

func (p *CasdoorProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	token, err := p.oauth.PasswordCredentialsToken(ctx, normalizeEmail(email), password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("casdoor sign-in failed: %w", err)
	}

	principal, err := p.Verify(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Principal signed in", "uid", principal.UID, "provider", "casdoor")
	return &Session{
		Token:     token.AccessToken,
		ExpiresAt: token.Expiry,
		Principal: *principal,
	}, nil
}

func (p *CasdoorProvider) parse(token string) (*casdoorsdk.Claims, error) {
	claims, err := p.client.ParseJwtToken(token)
	if err != nil || claims == nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *CasdoorProvider) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revocations.IsRevoked(ctx, revocationKey(token, claims.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	uid := claims.User.Id
	if uid == "" {
		uid = claims.Subject
	}
	return &Principal{
		UID:         uid,
		Email:       claims.User.Email,
		DisplayName: claims.User.DisplayName,
		PhotoURL:    claims.User.Avatar,
	}, nil
}

func (p *CasdoorProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}

	expiresAt := p.now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := p.revocations.Revoke(ctx, revocationKey(token, claims.ID), expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (p *CasdoorProvider) CreatePrincipal(_ context.Context, np NewPrincipal) (string, error) {
	uid := np.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	user := &casdoorsdk.User{
		Owner:       p.organization,
		Name:        uid,
		Id:          uid,
		Type:        "normal-user",
		Password:    np.Password,
		DisplayName: np.DisplayName,
		Email:       normalizeEmail(np.Email),
		Avatar:      np.PhotoURL,
		CreatedTime: p.now().UTC().Format(time.RFC3339),
	}

	added, err := p.client.AddUser(user)
	if err != nil {
		return "", fmt.Errorf("casdoor add user failed: %w", err)
	}
	if !added {
		return "", ErrPrincipalExists
	}

	p.logger.Info("Principal created", "uid", uid, "provider", "casdoor")
	return uid, nil
}

func (p *CasdoorProvider) DeletePrincipal(_ context.Context, uid string) error {
	deleted, err := p.client.DeleteUser(&casdoorsdk.User{Owner: p.organization, Name: uid})
	if err != nil {
		return fmt.Errorf("casdoor delete user failed: %w", err)
	}
	if !deleted {
		return ErrPrincipalNotFound
	}

	p.logger.Info("Principal deleted", "uid", uid, "provider", "casdoor")
	return nil
}

// revocationKey prefers the token id and falls back to a digest of the token.
func revocationKey(token, jti string) string {
	if jti != "" {
		return jti
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
