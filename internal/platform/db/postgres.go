package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string
}

// New creates a PostgreSQL connection pool and pings it.
func New(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := parsePoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}

func parsePoolConfig(cfg PoolConfig) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ApplicationName != "" {
		config.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	return config, nil
}
