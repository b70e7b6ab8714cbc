package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPostgres(t *testing.T) {
	_, err := OpenPostgres("", PostgresOptions{})
	require.Error(t, err)

	pg, err := OpenPostgres("postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1", PostgresOptions{MaxOpenConns: 3})
	require.NoError(t, err, "opening the pool does not connect")
	t.Cleanup(func() { _ = pg.Close() })
	assert.Equal(t, 3, pg.DB.Stats().MaxOpenConnections)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err = pg.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping postgres")
}

func TestClosedNilHandles(t *testing.T) {
	var pg *Postgres
	assert.NoError(t, pg.Close())
	var r *Redis
	assert.NoError(t, r.Close())
}

func TestOpenRedis(t *testing.T) {
	r := OpenRedis(RedisOptions{Addr: "127.0.0.1:1", DB: 2})
	t.Cleanup(func() { _ = r.Close() })
	assert.Equal(t, 2, r.Client.Options().DB)

	err := r.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
