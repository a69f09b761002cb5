package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_UsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.Users.InsertIfAbsent(ctx, "Alice@X.com", "first")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)

	_, err = m.Users.InsertIfAbsent(ctx, "alice@x.COM", "second")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	found, err := m.Users.FindByEmail(ctx, "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, "first", found.PasswordHash)

	_, err = m.Users.FindByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ConcurrentRegistrationKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Users.InsertIfAbsent(ctx, "race@x.com", "digest")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch err {
		case nil:
			ok++
		case ErrAlreadyExists:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 15, conflicts)
}

func TestMemory_BucketlistsAndItems(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	alice, err := m.Users.InsertIfAbsent(ctx, "alice@x.com", "d")
	require.NoError(t, err)
	bob, err := m.Users.InsertIfAbsent(ctx, "bob@x.com", "d")
	require.NoError(t, err)

	hike, err := m.Bucketlists.Create(ctx, alice.ID, "Hike")
	require.NoError(t, err)
	_, err = m.Bucketlists.Create(ctx, bob.ID, "Hike with Bob")
	require.NoError(t, err)
	_, err = m.Bucketlists.Create(ctx, "missing", "Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	lists, err := m.Bucketlists.ListByOwner(ctx, alice.ID, "")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, hike.ID, lists[0].ID)

	lists, err = m.Bucketlists.ListByOwner(ctx, bob.ID, "HIKE")
	require.NoError(t, err)
	assert.Len(t, lists, 1)
	lists, err = m.Bucketlists.ListByOwner(ctx, bob.ID, "swim")
	require.NoError(t, err)
	assert.Empty(t, lists)

	owner, err := m.Bucketlists.OwnerOf(ctx, hike.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, owner)

	boots, err := m.Items.Create(ctx, hike.ID, "Boots")
	require.NoError(t, err)
	_, err = m.Items.Create(ctx, hike.ID, "boots")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	done := true
	updated, err := m.Items.Update(ctx, hike.ID, boots.ID, model.ItemPatch{Done: &done})
	require.NoError(t, err)
	assert.True(t, updated.Done)
	assert.Equal(t, "Boots", updated.Name)

	_, err = m.Items.Update(ctx, "other-list", boots.ID, model.ItemPatch{Done: &done})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Users.Delete(ctx, alice.ID))
	_, err = m.Bucketlists.Get(ctx, hike.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	items, err := m.Items.ListByBucketlists(ctx, []string{hike.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemory_Revocations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, m.Revocations.Revoke(ctx, "old", now.Add(-time.Second)))
	require.NoError(t, m.Revocations.Revoke(ctx, "live", now.Add(time.Hour)))

	n, err := m.Revocations.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err := m.Revocations.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = m.Revocations.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
