package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options tunes the pool. Zero values fall back to DefaultOptions.
type Options struct {
	MaxConns int32
	// Wait bounds how long Connect keeps retrying the first ping, e.g. while the database container starts.
	Wait time.Duration
}

func DefaultOptions() Options {
	return Options{MaxConns: 10, Wait: 30 * time.Second}
}

// Connect opens a pgx pool and pings it until the database answers or opts.Wait runs out.
func Connect(ctx context.Context, dsn string, opts Options) (*pgxpool.Pool, error) {
	def := DefaultOptions()
	if opts.MaxConns <= 0 {
		opts.MaxConns = def.MaxConns
	}
	if opts.Wait <= 0 {
		opts.Wait = def.Wait
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	config.MaxConns = opts.MaxConns
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	if err := waitReady(ctx, pool, opts.Wait); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitReady(ctx context.Context, pool *pgxpool.Pool, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	backoff := 250 * time.Millisecond
	for {
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres: %w", err)
		case <-time.After(backoff):
		}
		slog.Warn("postgres not ready, retrying", "error", err, "backoff", backoff)
		if backoff < 4*time.Second {
			backoff *= 2
		}
	}
}
