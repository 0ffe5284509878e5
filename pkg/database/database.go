// Package database owns the PostgreSQL connection pool and ties its
// startup ping and shutdown close to the lifecycle coordinator.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/segmenter/pkg/lifecycle"
)

var ErrNotReady = errors.New("database not ready")

type System interface {
	Connection() *sql.DB
	// Ping reports ErrNotReady when the server cannot be reached within
	// the configured connection timeout.
	Ping(ctx context.Context) error
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	db      *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

// New configures the pool without dialing. The first connection is made
// by the startup ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return newSystem(db, cfg, logger), nil
}

func newSystem(db *sql.DB, cfg *Config, logger *slog.Logger) *database {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		db:      db,
		logger:  logger.With("system", "database"),
		timeout: cfg.ConnTimeoutDuration(),
	}
}

func (d *database) Connection() *sql.DB { return d.db }

func (d *database) Ping(ctx context.Context) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := d.Ping(lc.Context()); err != nil {
			d.logger.Error("startup ping failed", "error", err)
			return
		}
		d.logger.Info("connected")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := d.db.Close(); err != nil {
			d.logger.Error("close failed", "error", err)
			return
		}
		d.logger.Info("closed")
	})

	return nil
}
