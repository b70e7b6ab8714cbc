package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// Postgres is the record store connection pool, opened through the pgx
// database/sql driver.
type Postgres struct {
	DB *sql.DB
}

// PostgresOptions tunes the pool. Zero fields keep the defaults.
type PostgresOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres prepares the pool. No connection is made until first use, so
// callers decide whether an unreachable database is fatal by calling Ping.
func OpenPostgres(url string, opts PostgresOptions) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("store: DATABASE_URL is empty")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cmp.Or(opts.MaxOpenConns, 10))
	db.SetMaxIdleConns(cmp.Or(opts.MaxIdleConns, 5))
	db.SetConnMaxLifetime(cmp.Or(opts.ConnMaxLifetime, time.Hour))
	return &Postgres{DB: db}, nil
}

// Ping checks connectivity within a short deadline.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	return p.DB.Close()
}
