// Package auth verifies bearer credentials on incoming requests.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/signaling-service/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = fmt.Errorf("missing bearer token: %w", errs.ErrUnauthorized)
	ErrInvalidToken   = fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	ErrTokenExpired   = fmt.Errorf("token expired: %w", errs.ErrUnauthorized)
	ErrInvalidSubject = fmt.Errorf("token has no subject: %w", errs.ErrUnauthorized)
)

type Config struct {
	Secret    []byte
	Issuer    string
	Audience  string // optional
	ClockSkew time.Duration
}

// Result is the outcome of checking one request.
type Result struct {
	Authenticated bool
	UserID        string
	// Token is the raw credential; response sealing derives its key from it.
	Token  string
	Err    error
	Status int
}

// Authenticator checks HS256 access tokens: sub is the user id.
type Authenticator struct {
	cfg Config
	now func() time.Time
}

func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{cfg: cfg, now: time.Now}
}

// WithClock overrides the time source used for exp/nbf checks.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

func (a *Authenticator) Authenticate(r *http.Request) Result {
	token, ok := BearerToken(r)
	if !ok {
		return Result{Err: ErrMissingToken, Status: http.StatusUnauthorized}
	}
	claims, err := a.Parse(token)
	if err != nil {
		return Result{Token: token, Err: err, Status: http.StatusUnauthorized}
	}
	return Result{Authenticated: true, UserID: claims.Subject, Token: token, Status: http.StatusOK}
}

// Parse validates signature, algorithm, issuer, audience and time claims.
func (a *Authenticator) Parse(tokenStr string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.cfg.Secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSubject
	}
	return claims, nil
}

// Sign issues a token for userID valid for ttl. Used by tooling and tests.
func (a *Authenticator) Sign(userID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-a.cfg.ClockSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if a.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{a.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.Secret)
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
