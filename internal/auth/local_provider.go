package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "school-admin-service"

// Credential is the sign-in record kept by LocalProvider.
type Credential struct {
	UID          string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string `gorm:"size:200"`
	PhotoURL     string `gorm:"size:500"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Credential) TableName() string {
	return "credentials"
}

type localClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// LocalProvider stores bcrypt credentials in the database and issues HS256
// tokens.
type LocalProvider struct {
	db          *gorm.DB
	secret      []byte
	expiry      time.Duration
	revocations *cache.Revocations
	logger      *slog.Logger
	now         func() time.Time
}

func NewLocalProvider(db *gorm.DB, secret string, expiry time.Duration, revocations *cache.Revocations, logger *slog.Logger) (*LocalProvider, error) {
	if secret == "" {
		return nil, errors.New("local auth provider requires a JWT secret")
	}
	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credentials: %w", err)
	}
	return &LocalProvider{
		db:          db,
		secret:      []byte(secret),
		expiry:      expiry,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}, nil
}

var _ Provider = (*LocalProvider)(nil)

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := p.now()
	expiresAt := now.Add(p.expiry)
	claims := localClaims{
		Email:   cred.Email,
		Name:    cred.DisplayName,
		Picture: cred.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   cred.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	p.logger.Info("Principal signed in", "uid", cred.UID)
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: principalFromCredential(cred),
	}, nil
}

func (p *LocalProvider) parse(token string) (*localClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(p.now),
	)

	claims := &localClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return &Principal{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
	}, nil
}

// SignOut revokes token until it expires.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}
	if err := p.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	p.logger.Info("Principal signed out", "uid", claims.Subject)
	return nil
}

func (p *LocalProvider) CreatePrincipal(ctx context.Context, np NewPrincipal) (string, error) {
	email := normalizeEmail(np.Email)
	if email == "" || np.Password == "" {
		return "", errors.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(np.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	uid := np.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	cred := Credential{
		UID:          uid,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  np.DisplayName,
		PhotoURL:     np.PhotoURL,
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Credential{}).Where("email = ? OR uid = ?", email, uid).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPrincipalExists
		}
		return tx.Create(&cred).Error
	})
	if err != nil {
		if errors.Is(err, ErrPrincipalExists) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return "", ErrPrincipalExists
		}
		return "", fmt.Errorf("failed to create principal: %w", err)
	}

	p.logger.Info("Principal created", "uid", uid)
	return uid, nil
}

func (p *LocalProvider) DeletePrincipal(ctx context.Context, uid string) error {
	result := p.db.WithContext(ctx).Where("uid = ?", uid).Delete(&Credential{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete principal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPrincipalNotFound
	}

	p.logger.Info("Principal deleted", "uid", uid)
	return nil
}

func principalFromCredential(cred Credential) Principal {
	return Principal{
		UID:         cred.UID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		PhotoURL:    cred.PhotoURL,
	}
}
