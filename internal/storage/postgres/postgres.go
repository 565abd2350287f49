// Package postgres stores roll history in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rollbridge/internal/config"
)

// ApplicationName identifies rollbridge connections in pg_stat_activity.
const ApplicationName = "rollbridge"

// ReadyTimeout bounds the startup check made by Ready.
const ReadyTimeout = 5 * time.Second

// ErrNotMigrated is returned by Ready when the roll_history table is missing.
var ErrNotMigrated = errors.New("roll history schema not migrated")

// Pool is the connection pool shared by the roll history repository.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the history database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a Pool that answered a ping, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Ready reports whether roll history can be written: the database answers
// within timeout and the roll_history migration has been applied.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil, ErrNotMigrated, or a connection error.
func (p *Pool) Ready(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass('roll_history') IS NOT NULL`).Scan(&exists); err != nil {
		return fmt.Errorf("checking roll history schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: run cmd/migrate", ErrNotMigrated)
	}
	return nil
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for RollRepository.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
