package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/democracy365/internal/common"
	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/models"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/repomanager"
)

// Result of a dispatched operation. Rows is nil for write and scheduled
// operations and a non-nil (possibly empty) slice for reads.
type Result struct {
	Rows []models.Row
}

// Gateway executes operations of one registry.
type Gateway struct {
	registry    *Registry
	conn        dbx.Acquirer
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGateway(r *Registry, conn dbx.Acquirer, m repomanager.RepositoryManager, l logging.Logger) *Gateway {
	return &Gateway{
		registry:    r,
		conn:        conn,
		repomanager: m,
		logger:      l.With("module", "dispatch", "mode", r.Mode().String()),
	}
}

// Registry exposes the gateway's operation table.
func (g *Gateway) Registry() *Registry { return g.registry }

// Dispatch runs the operation called name. declared holds client values by
// parameter name; userID is the authenticated caller (0 for scheduled runs).
//
// Errors: common.ErrUnknownOperation and common.ErrInvalidParameter are
// returned before anything is executed; a store failure is
// common.ErrOperationFailed. Nothing is retried.
func (g *Gateway) Dispatch(ctx context.Context, name string, declared map[string]any, userID int64) (*Result, error) {
	const op = "dispatch.Dispatch"

	operation, ok := g.registry.Lookup(name)
	if !ok {
		return nil, common.Ef(common.KindUnknownOperation, op, nil, "%q", name)
	}

	args, err := bind(operation, declared, userID)
	if err != nil {
		return nil, common.Ef(common.KindInvalidParameter, op, err, "%s", name)
	}

	db, err := g.conn.Acquire(ctx)
	if err != nil {
		return nil, common.Ef(common.KindOperationFailed, op, fmt.Errorf("acquire connection: %w", err), "%s", name)
	}
	repo := g.repomanager.Procedures(db)

	start := time.Now()
	res := &Result{}
	if operation.Mode == ModeRead {
		res.Rows, err = repo.Query(ctx, operation.Statement, args...)
	} else {
		err = repo.Exec(ctx, operation.Statement, args...)
	}
	if err != nil {
		g.logger.Warn(ctx, "operation failed", append(storeDetail(err), "operation", name, "user_id", userID)...)
		return nil, common.Ef(common.KindOperationFailed, op, err, "%s", name)
	}

	g.logger.Info(ctx, "operation executed", "operation", name, "user_id", userID, "rows", len(res.Rows), "duration", time.Since(start))
	return res, nil
}

// storeDetail extracts the PostgreSQL error fields worth logging.
func storeDetail(err error) []any {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return []any{"sqlstate", pgErr.Code, "error", pgErr.Message}
	}
	return []any{"error", err}
}
