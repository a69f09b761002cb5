package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestMapPgError(t *testing.T) {
	assert.ErrorIs(t, mapPgError(&pq.Error{Code: pgUniqueViolation}), ErrAlreadyExists)
	assert.ErrorIs(t, mapPgError(&pq.Error{Code: pgForeignKeyViolation}), ErrNotFound)
	assert.ErrorIs(t, mapPgError(sql.ErrNoRows), ErrNotFound)

	err := mapPgError(errors.New("db down"))
	assert.EqualError(t, err, "db error: db down")
}

func TestUserRepo_InsertIfAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT INTO users \(id, email, password_hash\) VALUES \(\$1, \$2, \$3\)\s+ON CONFLICT \(lower\(email\)\) DO NOTHING\s+RETURNING created_at$`).
		WithArgs(sqlmock.AnyArg(), "alice@x.com", "digest").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	user, err := repo.InsertIfAbsent(context.Background(), "Alice@X.com", "digest")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.Equal(t, created, user.CreatedAt)
}

func TestUserRepo_InsertIfAbsent_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	mock.ExpectQuery(`^INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "alice@x.com", "digest").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	_, err := repo.InsertIfAbsent(context.Background(), "alice@x.com", "digest")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUserRepo_InsertIfAbsent_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	mock.ExpectQuery(`^INSERT INTO users`).
		WillReturnError(&pq.Error{Code: pgUniqueViolation})

	_, err := repo.InsertIfAbsent(context.Background(), "alice@x.com", "digest")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUserRepo_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`^SELECT id, email, password_hash, created_at FROM users WHERE lower\(email\) = lower\(\$1\)$`).
		WithArgs("ALICE@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("u-1", "alice@x.com", "digest", created))

	user, err := repo.FindByEmail(context.Background(), "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, &model.User{ID: "u-1", Email: "alice@x.com", PasswordHash: "digest", CreatedAt: created}, user)
}

func TestUserRepo_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	mock.ExpectQuery(`^SELECT id, email`).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(zap.NewNop(), db)

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).WithArgs("u-2").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-2"), ErrNotFound)
}

var bucketlistRowColumns = []string{"id", "owner_id", "name", "created_at", "modified_at"}

func TestBucketlistRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBucketlistRepository(zap.NewNop(), db)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT INTO bucketlists \(id, owner_id, name\) VALUES \(\$1, \$2, \$3\)\s+RETURNING id, owner_id, name, created_at, modified_at$`).
		WithArgs(sqlmock.AnyArg(), "u-1", "Hike").
		WillReturnRows(sqlmock.NewRows(bucketlistRowColumns).AddRow("b-1", "u-1", "Hike", now, now))

	b, err := repo.Create(context.Background(), "u-1", "Hike")
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
	assert.Equal(t, "u-1", b.OwnerID)
	assert.Equal(t, "Hike", b.Name)
}

func TestBucketlistRepo_Create_UnknownOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBucketlistRepository(zap.NewNop(), db)

	mock.ExpectQuery(`^INSERT INTO bucketlists`).WillReturnError(&pq.Error{Code: pgForeignKeyViolation})

	_, err := repo.Create(context.Background(), "gone", "Hike")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBucketlistRepo_ListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBucketlistRepository(zap.NewNop(), db)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT id, owner_id, name, created_at, modified_at FROM bucketlists\s+WHERE owner_id = \$1 AND \(\$2 = '' OR strpos\(lower\(name\), lower\(\$2\)\) > 0\)\s+ORDER BY created_at, id$`).
		WithArgs("u-1", "hi").
		WillReturnRows(sqlmock.NewRows(bucketlistRowColumns).
			AddRow("b-1", "u-1", "Hike", now, now).
			AddRow("b-2", "u-1", "Hiking", now, now))

	lists, err := repo.ListByOwner(context.Background(), "u-1", "hi")
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "b-1", lists[0].ID)
	assert.Equal(t, "b-2", lists[1].ID)
}

func TestBucketlistRepo_OwnerOf(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBucketlistRepository(zap.NewNop(), db)

	mock.ExpectQuery(`^SELECT owner_id FROM bucketlists WHERE id = \$1$`).WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("u-1"))
	mock.ExpectQuery(`^SELECT owner_id FROM bucketlists WHERE id = \$1$`).WithArgs("b-2").
		WillReturnError(sql.ErrNoRows)

	owner, err := repo.OwnerOf(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", owner)

	_, err = repo.OwnerOf(context.Background(), "b-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBucketlistRepo_RenameAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBucketlistRepository(zap.NewNop(), db)
	now := time.Now()

	mock.ExpectQuery(`(?s)^UPDATE bucketlists SET name = \$2, modified_at = now\(\) WHERE id = \$1\s+RETURNING`).
		WithArgs("b-1", "Climb").
		WillReturnRows(sqlmock.NewRows(bucketlistRowColumns).AddRow("b-1", "u-1", "Climb", now, now))
	mock.ExpectExec(`^DELETE FROM bucketlists WHERE id = \$1$`).WithArgs("b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	b, err := repo.Rename(context.Background(), "b-1", "Climb")
	require.NoError(t, err)
	assert.Equal(t, "Climb", b.Name)

	assert.NoError(t, repo.Delete(context.Background(), "b-1"))
}

var itemRowColumns = []string{"id", "bucketlist_id", "name", "done", "created_at", "modified_at"}

func TestItemRepo_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(zap.NewNop(), db)

	mock.ExpectQuery(`^INSERT INTO items`).
		WithArgs(sqlmock.AnyArg(), "b-1", "Boots").
		WillReturnError(&pq.Error{Code: pgUniqueViolation})

	_, err := repo.Create(context.Background(), "b-1", "Boots")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestItemRepo_ListByBucketlists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(zap.NewNop(), db)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT id, bucketlist_id, name, done, created_at, modified_at FROM items\s+WHERE bucketlist_id::text = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow("i-1", "b-1", "Boots", true, now, now))

	items, err := repo.ListByBucketlists(context.Background(), []string{"b-1", "b-2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)

	empty, err := repo.ListByBucketlists(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestItemRepo_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(zap.NewNop(), db)
	now := time.Now()
	done := true

	mock.ExpectQuery(`(?s)^UPDATE items SET name = COALESCE\(\$3, name\), done = COALESCE\(\$4, done\), modified_at = now\(\)\s+WHERE id = \$1 AND bucketlist_id = \$2`).
		WithArgs("i-1", "b-1", sql.NullString{}, sql.NullBool{Bool: true, Valid: true}).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow("i-1", "b-1", "Boots", true, now, now))
	mock.ExpectQuery(`^UPDATE items`).
		WithArgs("i-9", "b-1", sql.NullString{}, sql.NullBool{Bool: true, Valid: true}).
		WillReturnError(sql.ErrNoRows)

	it, err := repo.Update(context.Background(), "b-1", "i-1", model.ItemPatch{Done: &done})
	require.NoError(t, err)
	assert.True(t, it.Done)

	_, err = repo.Update(context.Background(), "b-1", "i-9", model.ItemPatch{Done: &done})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewItemRepository(zap.NewNop(), db)

	mock.ExpectExec(`^DELETE FROM items WHERE id = \$1 AND bucketlist_id = \$2$`).WithArgs("i-1", "b-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "b-1", "i-1"), ErrNotFound)
}

func TestRevocationRepo(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRevocationRepository(zap.NewNop(), db)
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT INTO revoked_tokens \(token_hash, expires_at\) VALUES \(\$1, \$2\)\s+ON CONFLICT \(token_hash\) DO NOTHING$`).
		WithArgs("fp", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`^SELECT EXISTS \(SELECT 1 FROM revoked_tokens WHERE token_hash = \$1\)$`).
		WithArgs("fp").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`^DELETE FROM revoked_tokens WHERE expires_at <= \$1$`).
		WithArgs(expires).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Revoke(context.Background(), "fp", expires))

	revoked, err := repo.IsRevoked(context.Background(), "fp")
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err := repo.DeleteExpired(context.Background(), expires)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
