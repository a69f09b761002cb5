package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/TooLazyToCreate/bucketlist/internal/repository"
)

type OwnerLookup interface {
	OwnerOf(ctx context.Context, bucketlistID string) (string, error)
}

// Authorize allows access iff the caller owns the resource.
func Authorize(userID, ownerID string) error {
	if userID == "" || userID != ownerID {
		return ErrForbidden
	}
	return nil
}

// Guard checks ownership of bucketlists. Items carry no owner: an item
// belongs to whoever owns its parent list.
type Guard struct {
	lists OwnerLookup
}

func NewGuard(lists OwnerLookup) *Guard {
	return &Guard{lists: lists}
}

// AuthorizeBucketlist returns ErrNotFound for a missing list and
// ErrForbidden for someone else's list.
func (g *Guard) AuthorizeBucketlist(ctx context.Context, userID, bucketlistID string) error {
	ownerID, err := g.lists.OwnerOf(ctx, bucketlistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("owner lookup: %w", err)
	}
	return Authorize(userID, ownerID)
}
