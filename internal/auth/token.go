// Package auth issues and verifies bearer tokens and guards mutating routes.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/apperr"
)

// TokenConfig carries the signing settings. It is passed explicitly to
// NewTokenService; nothing in this package reads the environment.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Principal is the identity a token is minted for.
type Principal struct {
	Subject string
	Email   string
	Name    string
}

// Claims is the decoded token payload attached to admitted requests.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// TokenService signs and validates HS256 tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is empty")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: cfg.Secret, ttl: cfg.TTL, issuer: cfg.Issuer, now: now}, nil
}

// Issue mints a token for p that expires after the configured ttl.
func (s *TokenService) Issue(p Principal) (string, error) {
	if p.Subject == "" {
		return "", errors.New("token subject is empty")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: p.Email,
		Name:  p.Name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, algorithm, issuer and expiry of raw. Every failure
// wraps apperr.ErrInvalidToken.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, apperr.InvalidToken(err)
	}
	if claims.Subject == "" {
		return nil, apperr.InvalidToken(errors.New("token has no subject"))
	}
	return &claims, nil
}
