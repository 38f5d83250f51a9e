//go:build integration

package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisQueue_FIFO(t *testing.T) {
	rdb := newRedis(t)
	q := NewRedisQueue(rdb)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "b-1"))
	require.NoError(t, q.Enqueue(ctx, "b-2"))
	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := q.Next(ctx)
	require.NoError(t, err)
	second, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1", "b-2"}, []string{first, second})
}

func TestRedisDLQ(t *testing.T) {
	rdb := newRedis(t)
	d := NewRedisDLQ(rdb, zerolog.Nop())
	ctx := context.Background()

	d.Send(ctx, ports.DeadLetter{BatchID: "b-9", Reason: "disco lleno", FailedAt: time.Now()})
	n, err := d.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	raw, err := rdb.LIndex(ctx, DLQPrefix+QueueBatchMaterialize, 0).Result()
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, "b-9", entry.BatchID)
	assert.Equal(t, QueueBatchMaterialize, entry.OriginalQueue)
}

func TestRedisLeader_Exclusivo(t *testing.T) {
	rdb := newRedis(t)
	a, b := NewRedisLeader(rdb), NewRedisLeader(rdb)
	ctx := context.Background()

	release, ok, err := a.Acquire(ctx, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = b.Acquire(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	releaseB, ok, err := b.Acquire(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	releaseB()
}
