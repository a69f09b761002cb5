package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/google/uuid"
)

// Memory is a process-local backend for development and tests. The mutex
// stands in for the transactional guarantees of the database: unique email
// and unique item name per list are checked under it.
type Memory struct {
	mu          sync.Mutex
	now         func() time.Time
	users       map[string]model.User
	bucketlists map[string]model.Bucketlist
	items       map[string]model.Item
	revoked     map[string]time.Time

	Users       UserRepository
	Bucketlists BucketlistRepository
	Items       ItemRepository
	Revocations *MemoryRevocations
}

func NewMemory() *Memory {
	m := &Memory{
		now:         time.Now,
		users:       make(map[string]model.User),
		bucketlists: make(map[string]model.Bucketlist),
		items:       make(map[string]model.Item),
		revoked:     make(map[string]time.Time),
	}
	m.Users = &memUsers{m}
	m.Bucketlists = &memBucketlists{m}
	m.Items = &memItems{m}
	m.Revocations = &MemoryRevocations{m}
	return m
}

type memUsers struct{ m *Memory }

func (r *memUsers) InsertIfAbsent(_ context.Context, email, passwordHash string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.m.users {
		if u.Email == email {
			return nil, ErrAlreadyExists
		}
	}
	u := model.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, CreatedAt: r.m.now()}
	r.m.users[u.ID] = u
	return &u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUsers) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.users, id)
	for listID, b := range r.m.bucketlists {
		if b.OwnerID == id {
			r.m.deleteBucketlistLocked(listID)
		}
	}
	return nil
}

func (m *Memory) deleteBucketlistLocked(id string) {
	delete(m.bucketlists, id)
	for itemID, it := range m.items {
		if it.BucketlistID == id {
			delete(m.items, itemID)
		}
	}
}

type memBucketlists struct{ m *Memory }

func (r *memBucketlists) Create(_ context.Context, ownerID, name string) (*model.Bucketlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[ownerID]; !ok {
		return nil, ErrNotFound
	}
	now := r.m.now()
	b := model.Bucketlist{ID: uuid.NewString(), OwnerID: ownerID, Name: name, CreatedAt: now, ModifiedAt: now}
	r.m.bucketlists[b.ID] = b
	return &b, nil
}

func (r *memBucketlists) ListByOwner(_ context.Context, ownerID, q string) ([]model.Bucketlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	q = strings.ToLower(q)
	result := make([]model.Bucketlist, 0, 10)
	for _, b := range r.m.bucketlists {
		if b.OwnerID != ownerID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *memBucketlists) Get(_ context.Context, id string) (*model.Bucketlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.bucketlists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *memBucketlists) OwnerOf(_ context.Context, id string) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.bucketlists[id]
	if !ok {
		return "", ErrNotFound
	}
	return b.OwnerID, nil
}

func (r *memBucketlists) Rename(_ context.Context, id, name string) (*model.Bucketlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.bucketlists[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Name = name
	b.ModifiedAt = r.m.now()
	r.m.bucketlists[id] = b
	return &b, nil
}

func (r *memBucketlists) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.bucketlists[id]; !ok {
		return ErrNotFound
	}
	r.m.deleteBucketlistLocked(id)
	return nil
}

type memItems struct{ m *Memory }

func (r *memItems) nameTakenLocked(bucketlistID, name, exceptID string) bool {
	name = strings.ToLower(name)
	for _, it := range r.m.items {
		if it.BucketlistID == bucketlistID && it.ID != exceptID && strings.ToLower(it.Name) == name {
			return true
		}
	}
	return false
}

func (r *memItems) Create(_ context.Context, bucketlistID, name string) (*model.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.bucketlists[bucketlistID]; !ok {
		return nil, ErrNotFound
	}
	if r.nameTakenLocked(bucketlistID, name, "") {
		return nil, ErrAlreadyExists
	}
	now := r.m.now()
	it := model.Item{ID: uuid.NewString(), BucketlistID: bucketlistID, Name: name, CreatedAt: now, ModifiedAt: now}
	r.m.items[it.ID] = it
	return &it, nil
}

func (r *memItems) ListByBucketlists(_ context.Context, bucketlistIDs []string) ([]model.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	wanted := make(map[string]struct{}, len(bucketlistIDs))
	for _, id := range bucketlistIDs {
		wanted[id] = struct{}{}
	}
	result := make([]model.Item, 0, 10)
	for _, it := range r.m.items {
		if _, ok := wanted[it.BucketlistID]; ok {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *memItems) Update(_ context.Context, bucketlistID, itemID string, patch model.ItemPatch) (*model.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	it, ok := r.m.items[itemID]
	if !ok || it.BucketlistID != bucketlistID {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		if r.nameTakenLocked(bucketlistID, *patch.Name, itemID) {
			return nil, ErrAlreadyExists
		}
		it.Name = *patch.Name
	}
	if patch.Done != nil {
		it.Done = *patch.Done
	}
	it.ModifiedAt = r.m.now()
	r.m.items[itemID] = it
	return &it, nil
}

func (r *memItems) Delete(_ context.Context, bucketlistID, itemID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	it, ok := r.m.items[itemID]
	if !ok || it.BucketlistID != bucketlistID {
		return ErrNotFound
	}
	delete(r.m.items, itemID)
	return nil
}

type MemoryRevocations struct{ m *Memory }

func (r *MemoryRevocations) Revoke(_ context.Context, fingerprint string, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.revoked[fingerprint]; !ok {
		r.m.revoked[fingerprint] = expiresAt
	}
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, fingerprint string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	_, ok := r.m.revoked[fingerprint]
	return ok, nil
}

func (r *MemoryRevocations) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for fingerprint, expiresAt := range r.m.revoked {
		if !expiresAt.After(now) {
			delete(r.m.revoked, fingerprint)
			n++
		}
	}
	return n, nil
}
