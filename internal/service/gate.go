package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/token"
	"go.uber.org/zap"
)

const bearerScheme = "Bearer"

// Identity is what the gate hands to the rest of a request once the bearer
// token checked out.
type Identity struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

type TokenValidator interface {
	Validate(ctx context.Context, token string, now time.Time) (token.Claims, error)
}

// Gate resolves the Authorization header of a request to an Identity.
type Gate struct {
	logger *zap.Logger
	tokens TokenValidator
	now    func() time.Time
}

func NewGate(logger *zap.Logger, tokens TokenValidator) *Gate {
	return &Gate{
		logger: logger,
		tokens: tokens,
		now:    time.Now,
	}
}

// Authenticate returns an *AuthError for every client-side failure. Any other
// error means the token could not be checked at all (revocation store down).
func (g *Gate) Authenticate(ctx context.Context, header string) (Identity, error) {
	raw, err := ParseBearer(header)
	if err != nil {
		return Identity{}, err
	}
	claims, err := g.tokens.Validate(ctx, raw, g.now())
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return Identity{}, &AuthError{Cause: token.ErrExpired, Reason: "Signature expired. Please log in again."}
		case errors.Is(err, token.ErrRevoked):
			return Identity{}, &AuthError{Cause: token.ErrRevoked, Reason: "Token has been revoked. Please log in again."}
		case errors.Is(err, token.ErrMalformed):
			return Identity{}, &AuthError{Cause: token.ErrMalformed, Reason: "Invalid token. Please log in again."}
		}
		g.logger.Error("Token could not be validated", zap.Error(err))
		return Identity{}, fmt.Errorf("validate token: %w", err)
	}
	return Identity{
		UserID:    claims.Subject,
		Token:     raw,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// ParseBearer extracts the token from a "Bearer <token>" header value. An
// empty value counts as absent.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", &AuthError{Cause: ErrMissingCredentials, Reason: "Authorization header is missing."}
	}
	scheme, raw, ok := strings.Cut(header, " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, bearerScheme) || raw == "" || strings.ContainsAny(raw, " \t") {
		return "", &AuthError{Cause: ErrMalformedHeader, Reason: "Authorization header must be 'Bearer <token>'."}
	}
	return raw, nil
}
