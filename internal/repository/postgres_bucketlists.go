package repository

import (
	"context"
	"database/sql"

	"github.com/TooLazyToCreate/bucketlist/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const bucketlistColumns = `id, owner_id, name, created_at, modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBucketlist(row rowScanner) (*model.Bucketlist, error) {
	b := &model.Bucketlist{}
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt, &b.ModifiedAt); err != nil {
		return nil, err
	}
	return b, nil
}

type bucketlistRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewBucketlistRepository(logger *zap.Logger, db *sql.DB) BucketlistRepository {
	return &bucketlistRepo{
		db:     db,
		logger: logger,
	}
}

func (r *bucketlistRepo) Create(ctx context.Context, ownerID, name string) (*model.Bucketlist, error) {
	query := `INSERT INTO bucketlists (id, owner_id, name) VALUES ($1, $2, $3)
		RETURNING ` + bucketlistColumns
	b, err := scanBucketlist(r.db.QueryRowContext(ctx, query, uuid.NewString(), ownerID, name))
	if err != nil {
		return nil, mapPgError(err)
	}
	return b, nil
}

func (r *bucketlistRepo) ListByOwner(ctx context.Context, ownerID, q string) ([]model.Bucketlist, error) {
	query := `SELECT ` + bucketlistColumns + ` FROM bucketlists
		WHERE owner_id = $1 AND ($2 = '' OR strpos(lower(name), lower($2)) > 0)
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID, q)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := make([]model.Bucketlist, 0, 10)
	for rows.Next() {
		b, err := scanBucketlist(rows)
		if err != nil {
			return nil, mapPgError(err)
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return result, nil
}

func (r *bucketlistRepo) Get(ctx context.Context, id string) (*model.Bucketlist, error) {
	query := `SELECT ` + bucketlistColumns + ` FROM bucketlists WHERE id = $1`
	b, err := scanBucketlist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return b, nil
}

func (r *bucketlistRepo) OwnerOf(ctx context.Context, id string) (string, error) {
	var ownerID string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM bucketlists WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		return "", mapPgError(err)
	}
	return ownerID, nil
}

func (r *bucketlistRepo) Rename(ctx context.Context, id, name string) (*model.Bucketlist, error) {
	query := `UPDATE bucketlists SET name = $2, modified_at = now() WHERE id = $1
		RETURNING ` + bucketlistColumns
	b, err := scanBucketlist(r.db.QueryRowContext(ctx, query, id, name))
	if err != nil {
		return nil, mapPgError(err)
	}
	return b, nil
}

func (r *bucketlistRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bucketlists WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return expectOneRow(res)
}

const itemColumns = `id, bucketlist_id, name, done, created_at, modified_at`

func scanItem(row rowScanner) (*model.Item, error) {
	it := &model.Item{}
	if err := row.Scan(&it.ID, &it.BucketlistID, &it.Name, &it.Done, &it.CreatedAt, &it.ModifiedAt); err != nil {
		return nil, err
	}
	return it, nil
}

type itemRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewItemRepository(logger *zap.Logger, db *sql.DB) ItemRepository {
	return &itemRepo{
		db:     db,
		logger: logger,
	}
}

func (r *itemRepo) Create(ctx context.Context, bucketlistID, name string) (*model.Item, error) {
	query := `INSERT INTO items (id, bucketlist_id, name) VALUES ($1, $2, $3)
		RETURNING ` + itemColumns
	it, err := scanItem(r.db.QueryRowContext(ctx, query, uuid.NewString(), bucketlistID, name))
	if err != nil {
		return nil, mapPgError(err)
	}
	return it, nil
}

func (r *itemRepo) ListByBucketlists(ctx context.Context, bucketlistIDs []string) ([]model.Item, error) {
	result := make([]model.Item, 0, 10)
	if len(bucketlistIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE bucketlist_id::text = ANY($1)
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(bucketlistIDs))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapPgError(err)
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return result, nil
}

func (r *itemRepo) Update(ctx context.Context, bucketlistID, itemID string, patch model.ItemPatch) (*model.Item, error) {
	var name sql.NullString
	if patch.Name != nil {
		name = sql.NullString{String: *patch.Name, Valid: true}
	}
	var done sql.NullBool
	if patch.Done != nil {
		done = sql.NullBool{Bool: *patch.Done, Valid: true}
	}
	query := `UPDATE items SET name = COALESCE($3, name), done = COALESCE($4, done), modified_at = now()
		WHERE id = $1 AND bucketlist_id = $2
		RETURNING ` + itemColumns
	it, err := scanItem(r.db.QueryRowContext(ctx, query, itemID, bucketlistID, name, done))
	if err != nil {
		return nil, mapPgError(err)
	}
	return it, nil
}

func (r *itemRepo) Delete(ctx context.Context, bucketlistID, itemID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1 AND bucketlist_id = $2`, itemID, bucketlistID)
	if err != nil {
		return mapPgError(err)
	}
	return expectOneRow(res)
}
