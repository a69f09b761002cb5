package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/TooLazyToCreate/bucketlist/internal/password"
	"github.com/TooLazyToCreate/bucketlist/internal/repository"
	"github.com/TooLazyToCreate/bucketlist/internal/token"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	Issue(subject string, now time.Time) (string, token.Claims, error)
}

// Session is the result of a successful login.
type Session struct {
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	hasher      PasswordHasher
	tokens      TokenIssuer
	revocations repository.RevocationRepository
	validate    *validator.Validate
	now         func() time.Time
	// compared against on unknown emails so login time does not depend on
	// whether the account exists
	dummyHash string
}

// NewAuthService wires the credential store, hasher and token issuer.
// revocations may be nil, which turns Logout off.
func NewAuthService(logger *zap.Logger, users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, revocations repository.RevocationRepository) (*AuthService, error) {
	dummyHash, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		validate:    validator.New(),
		now:         time.Now,
		dummyHash:   dummyHash,
	}, nil
}

func (service *AuthService) RevocationEnabled() bool {
	return service.revocations != nil
}

// Register stores a new user with a hash of the password. The email is
// compared case-insensitively.
func (service *AuthService) Register(ctx context.Context, email, plaintext string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := service.validate.Var(email, "required,email,max=255"); err != nil {
		return nil, invalidInput("Invalid Email Format!")
	}
	if err := password.Check(plaintext); err != nil {
		return nil, invalidInput(err.Error())
	}
	digest, err := service.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := service.users.InsertIfAbsent(ctx, strings.ToLower(email), digest)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	service.logger.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

func (service *AuthService) Login(ctx context.Context, email, plaintext string) (*Session, error) {
	user, err := service.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			service.hasher.Verify(plaintext, service.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !service.hasher.Verify(plaintext, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	signed, claims, err := service.tokens.Issue(user.ID, service.now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	service.logger.Debug("New token was given", zap.String("user_id", user.ID))
	return &Session{
		UserID:    user.ID,
		Token:     signed,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Logout revokes the presented token until its natural expiry.
func (service *AuthService) Logout(ctx context.Context, id Identity) error {
	if service.revocations == nil {
		return ErrRevocationDisabled
	}
	if err := service.revocations.Revoke(ctx, token.Fingerprint(id.Token), id.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	service.logger.Debug("Token was revoked", zap.String("user_id", id.UserID))
	return nil
}

// DeleteAccount removes the caller together with their lists and items.
func (service *AuthService) DeleteAccount(ctx context.Context, id Identity) error {
	if err := service.users.Delete(ctx, id.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	service.logger.Info("User deleted", zap.String("user_id", id.UserID))
	if service.revocations != nil {
		if err := service.revocations.Revoke(ctx, token.Fingerprint(id.Token), id.ExpiresAt); err != nil {
			service.logger.Error("Failed to revoke token of deleted user", zap.Error(err), zap.String("user_id", id.UserID))
		}
	}
	return nil
}
