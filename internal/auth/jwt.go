package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/social-ledger/internal/config"
)

var (
	// ErrInvalidToken covers every reason a token is rejected: bad signature,
	// malformed input, wrong algorithm or issuer, missing subject.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired is returned once the expiry window has passed. It
	// wraps ErrInvalidToken.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// TokenService issues and validates signed, time-limited bearer tokens.
//
// JWT STRUCTURE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"ann@example.com","iat":...,"exp":...,"iss":"social-ledger"}
//	- Signature: HMAC(header+"."+payload, secret)
//
// The subject is the user's email. The token carries no user id; callers
// always re-resolve the user from the subject.
type TokenService struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

// NewTokenService creates a TokenService from the token configuration.
func NewTokenService(cfg config.TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Lifetime <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{
		secret:   []byte(cfg.Secret),
		method:   method,
		lifetime: cfg.Lifetime,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}, nil
}

// WithClock returns a copy of s that reads the current time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Lifetime is the expiry window applied to every issued token.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue creates and signs a token for subject, valid for the configured
// lifetime from now.
func (s *TokenService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("auth: token subject must not be empty")
	}
	now := s.now()

	c := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		Issuer:    s.issuer,
	}

	signed, err := jwt.NewWithClaims(s.method, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry and returns the
// subject.
//
// jwt.WithValidMethods pins the algorithm so a token signed with "none" or
// with another HMAC size is rejected.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return c.Subject, nil
}
