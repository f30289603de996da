package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type PoolParams struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func DefaultPoolParams() PoolParams {
	return PoolParams{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Connect opens a pool and pings it; the caller owns Close.
func Connect(ctx context.Context, dbURL string, params PoolParams) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	if params.MaxConns > 0 {
		config.MaxConns = params.MaxConns
	}
	if params.MinConns > 0 {
		config.MinConns = params.MinConns
	}
	if params.MaxConnLifetime > 0 {
		config.MaxConnLifetime = params.MaxConnLifetime
	}
	if params.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = params.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"max_conns": config.MaxConns,
		"min_conns": config.MinConns,
	}).Infoln("connected to postgres")
	return pool, nil
}
