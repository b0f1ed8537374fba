package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/democracy365/internal/logging"
)

// Provider lazily opens one connection pool and reuses it for the life of
// the process. A pool that fails a health ping is dropped and the next
// Acquire opens a fresh one.
type Provider struct {
	mu        sync.Mutex
	connector Connector
	db        *sql.DB
	logger    logging.Logger
}

func NewProvider(c Connector, l logging.Logger) *Provider {
	return &Provider{connector: c, logger: l.With("module", "db_provider")}
}

// Acquire returns the cached pool, opening and verifying one if none is held.
func (p *Provider) Acquire(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.connector.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	p.logger.Info(ctx, "database connection established")
	p.db = db
	return db, nil
}

// Ping checks the cached pool without holding the lock. On failure the
// pool is dropped so the next Acquire reconnects.
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	err = db.PingContext(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	p.logger.Warn(ctx, "cached connection failed ping, dropping it", "error", err)
	p.invalidate(db)
	return fmt.Errorf("db ping error: %w", err)
}

// invalidate closes db if it is still the cached pool.
func (p *Provider) invalidate(db *sql.DB) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != db {
		return
	}
	_ = p.db.Close()
	p.db = nil
}

// Close releases the cached pool, if any.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("db close error: %w", err)
	}
	return nil
}
