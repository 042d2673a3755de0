package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/shiftly-dev/shiftly/backend/internal/config"
)

//go:embed schema.sql
var schema string

type rowScanner interface {
	Scan(dest ...any) error
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, schema)
	return err
}

func (r *Repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&txRepository{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}
