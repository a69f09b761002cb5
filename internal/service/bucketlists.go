package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/TooLazyToCreate/bucketlist/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNameLength = 255

// BucketlistService runs list and item operations for an authenticated
// user. Everything that reads or changes a single list goes through the
// guard first; listings are filtered to the caller by the store.
type BucketlistService struct {
	logger *zap.Logger
	lists  repository.BucketlistRepository
	items  repository.ItemRepository
	guard  *Guard
}

func NewBucketlistService(logger *zap.Logger, lists repository.BucketlistRepository, items repository.ItemRepository) *BucketlistService {
	return &BucketlistService{
		logger: logger,
		lists:  lists,
		items:  items,
		guard:  NewGuard(lists),
	}
}

func cleanName(name, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidInput(what + " must have a name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", invalidInput(fmt.Sprintf("%s name must be at most %d characters", what, maxNameLength))
	}
	return name, nil
}

// ids that are not UUIDs cannot exist
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return nil
}

func mapRepoError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *BucketlistService) authorize(ctx context.Context, userID, bucketlistID string) error {
	if err := checkID(bucketlistID); err != nil {
		return err
	}
	if err := s.guard.AuthorizeBucketlist(ctx, userID, bucketlistID); err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Info("Ownership mismatch", zap.String("user_id", userID), zap.String("bucketlist_id", bucketlistID))
		}
		return err
	}
	return nil
}

func (s *BucketlistService) Create(ctx context.Context, userID, name string) (*model.Bucketlist, error) {
	name, err := cleanName(name, "Bucketlist")
	if err != nil {
		return nil, err
	}
	b, err := s.lists.Create(ctx, userID, name)
	if err != nil {
		return nil, mapRepoError(err, "create bucketlist")
	}
	b.Items = []model.Item{}
	return b, nil
}

// List returns the caller's lists with their items. q narrows the result to
// names containing it.
func (s *BucketlistService) List(ctx context.Context, userID, q string) ([]model.Bucketlist, error) {
	lists, err := s.lists.ListByOwner(ctx, userID, strings.TrimSpace(q))
	if err != nil {
		return nil, mapRepoError(err, "list bucketlists")
	}
	if err := s.attachItems(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *BucketlistService) attachItems(ctx context.Context, lists []model.Bucketlist) error {
	ids := make([]string, 0, len(lists))
	index := make(map[string]int, len(lists))
	for i := range lists {
		lists[i].Items = []model.Item{}
		ids = append(ids, lists[i].ID)
		index[lists[i].ID] = i
	}
	items, err := s.items.ListByBucketlists(ctx, ids)
	if err != nil {
		return mapRepoError(err, "list items")
	}
	for _, it := range items {
		if i, ok := index[it.BucketlistID]; ok {
			lists[i].Items = append(lists[i].Items, it)
		}
	}
	return nil
}

func (s *BucketlistService) Get(ctx context.Context, userID, bucketlistID string) (*model.Bucketlist, error) {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return nil, err
	}
	b, err := s.lists.Get(ctx, bucketlistID)
	if err != nil {
		return nil, mapRepoError(err, "get bucketlist")
	}
	lists := []model.Bucketlist{*b}
	if err := s.attachItems(ctx, lists); err != nil {
		return nil, err
	}
	return &lists[0], nil
}

func (s *BucketlistService) Rename(ctx context.Context, userID, bucketlistID, name string) (*model.Bucketlist, error) {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return nil, err
	}
	name, err := cleanName(name, "Bucketlist")
	if err != nil {
		return nil, err
	}
	b, err := s.lists.Rename(ctx, bucketlistID, name)
	if err != nil {
		return nil, mapRepoError(err, "rename bucketlist")
	}
	lists := []model.Bucketlist{*b}
	if err := s.attachItems(ctx, lists); err != nil {
		return nil, err
	}
	return &lists[0], nil
}

func (s *BucketlistService) Delete(ctx context.Context, userID, bucketlistID string) error {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, bucketlistID); err != nil {
		return mapRepoError(err, "delete bucketlist")
	}
	return nil
}

func (s *BucketlistService) AddItem(ctx context.Context, userID, bucketlistID, name string) (*model.Item, error) {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return nil, err
	}
	name, err := cleanName(name, "Item")
	if err != nil {
		return nil, err
	}
	it, err := s.items.Create(ctx, bucketlistID, name)
	if err != nil {
		return nil, mapRepoError(err, "create item")
	}
	return it, nil
}

func (s *BucketlistService) ListItems(ctx context.Context, userID, bucketlistID string) ([]model.Item, error) {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByBucketlists(ctx, []string{bucketlistID})
	if err != nil {
		return nil, mapRepoError(err, "list items")
	}
	return items, nil
}

func (s *BucketlistService) UpdateItem(ctx context.Context, userID, bucketlistID, itemID string, patch model.ItemPatch) (*model.Item, error) {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return nil, err
	}
	if err := checkID(itemID); err != nil {
		return nil, err
	}
	if patch.Name == nil && patch.Done == nil {
		return nil, invalidInput("Item name not valid")
	}
	if patch.Name != nil {
		name, err := cleanName(*patch.Name, "Item")
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	it, err := s.items.Update(ctx, bucketlistID, itemID, patch)
	if err != nil {
		return nil, mapRepoError(err, "update item")
	}
	return it, nil
}

func (s *BucketlistService) DeleteItem(ctx context.Context, userID, bucketlistID, itemID string) error {
	if err := s.authorize(ctx, userID, bucketlistID); err != nil {
		return err
	}
	if err := checkID(itemID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, bucketlistID, itemID); err != nil {
		return mapRepoError(err, "delete item")
	}
	return nil
}
