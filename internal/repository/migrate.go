package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TooLazyToCreate/bucketlist/internal/repository/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate brings the schema up to date from the embedded SQL files.
func Migrate(ctx context.Context, logger *zap.Logger, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zap.NewStdLog(logger))
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
