package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// UserRepository is the credential store. Emails are stored lower-cased and
// the store enforces their uniqueness.
type UserRepository interface {
	InsertIfAbsent(ctx context.Context, email, passwordHash string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

type BucketlistRepository interface {
	Create(ctx context.Context, ownerID, name string) (*model.Bucketlist, error)
	// ListByOwner returns the owner's lists whose name contains query
	// (case-insensitive); an empty query matches everything.
	ListByOwner(ctx context.Context, ownerID, query string) ([]model.Bucketlist, error)
	Get(ctx context.Context, id string) (*model.Bucketlist, error)
	OwnerOf(ctx context.Context, id string) (string, error)
	Rename(ctx context.Context, id, name string) (*model.Bucketlist, error)
	Delete(ctx context.Context, id string) error
}

type ItemRepository interface {
	Create(ctx context.Context, bucketlistID, name string) (*model.Item, error)
	ListByBucketlists(ctx context.Context, bucketlistIDs []string) ([]model.Item, error)
	Update(ctx context.Context, bucketlistID, itemID string, patch model.ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, bucketlistID, itemID string) error
}

// RevocationRepository stores token fingerprints until the token's own
// expiry; an entry is never dropped earlier.
type RevocationRepository interface {
	Revoke(ctx context.Context, fingerprint string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
}

// RevocationPruner is implemented by stores that do not expire entries on
// their own.
type RevocationPruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
