package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sig-0/travelrates/cmd/env"
)

// ConnectPostgres opens the PostgreSQL connection pool from the environment
// and checks the DB is reachable. The pool is shared by the API and the harvests
func ConnectPostgres(ctx context.Context, logger *slog.Logger) (*pgxpool.Pool, error) {
	dsn := os.Getenv(env.DBURL)
	if dsn == "" {
		return nil, fmt.Errorf("missing %s", env.DBURL)
	}

	// Open DB connection pool
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open DB connection: %w", err)
	}

	// Check DB reachability
	pingCtx, cancelPing := context.WithTimeout(ctx, time.Second*5)
	defer cancelPing()

	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("unable to reach DB (ping): %w", err)
	}

	logger.Info("DB ping success")

	return pool, nil
}
