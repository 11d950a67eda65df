package server

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// JWTService issues and verifies HS256 tokens whose subject is the user id.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a token service. The secret must be set.
func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "JWT secret is required", nil)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// GenerateToken signs a token for userID and returns it with its expiry.
func (s *JWTService) GenerateToken(userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "user id is required", nil)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.NewInternalError("TOKEN_SIGN_FAILED", "failed to sign token", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies tokenString and returns its subject.
func (s *JWTService) ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.NewAuthError(errors.ErrCodeInvalidToken, "token is empty", nil)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		message := "invalid token"
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			message = "token expired"
		case stderrors.Is(err, jwt.ErrTokenMalformed):
			message = "malformed token"
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
			message = "invalid token signature"
		}
		return "", errors.NewAuthError(errors.ErrCodeInvalidToken, message, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.NewAuthError(errors.ErrCodeInvalidToken, "token has no subject", nil)
	}

	return claims.Subject, nil
}

type userIDKey struct{}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}
