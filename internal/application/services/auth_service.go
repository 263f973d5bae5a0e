package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/todobot/core/internal/infrastructure/config"
)

var ErrTokenAuthDisabled = errors.New("service token authentication is disabled")

// Claims represents the service token claims
type Claims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

// AuthService issues and validates the short-lived HS256 tokens services use to call the API
type AuthService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.SecurityConfig) *AuthService {
	return &AuthService{
		secret: []byte(cfg.APITokenSecret),
		issuer: cfg.APITokenIssuer,
		ttl:    cfg.APITokenTTL,
		now:    time.Now,
	}
}

// Enabled reports whether a signing secret is configured
func (s *AuthService) Enabled() bool {
	return len(s.secret) > 0
}

// IssueToken signs a token identifying service
func (s *AuthService) IssueToken(service string) (string, error) {
	if !s.Enabled() {
		return "", ErrTokenAuthDisabled
	}

	now := s.now()
	claims := &Claims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   service,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a service token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrTokenAuthDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
