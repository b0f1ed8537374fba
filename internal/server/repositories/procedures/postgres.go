// Package procedures executes registered statements (queries, stored
// procedure calls, view refreshes) against PostgreSQL.
package procedures

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Query(ctx context.Context, statement string, args ...any) ([]models.Row, error) {
	rows, err := r.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	maps, err := dbx.ScanMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	out := make([]models.Row, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out, nil
}

func (r *PostgresRepository) Exec(ctx context.Context, statement string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, statement, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
