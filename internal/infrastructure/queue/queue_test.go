package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type recordingHandler struct {
	mu   sync.Mutex
	seen map[string]int
	done chan struct{}
	want int
}

func newRecordingHandler(want int) *recordingHandler {
	return &recordingHandler{seen: map[string]int{}, done: make(chan struct{}), want: want}
}

func (h *recordingHandler) Process(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[id]++
	total := 0
	for _, n := range h.seen {
		total += n
	}
	if total == h.want {
		close(h.done)
	}
	return nil
}

// downSource simula Redis caído: toda lectura falla.
type downSource struct {
	calls atomic.Int64
}

func (s *downSource) Next(context.Context) (string, error) {
	s.calls.Add(1)
	return "", errors.New("redis: connection refused")
}

type busyLeader struct{}

func (busyLeader) Acquire(context.Context, time.Duration) (func(), bool, error) {
	return nil, false, nil
}

func pendingBatch(t *testing.T, store *memory.Store, id string, serial int64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, store.Batches().Create(context.Background(), &entity.Batch{
		ID: id, ProductCode: "HSRP", StateCode: "KA", OEMCode: "TATA",
		Quantity: 1, SerialStart: serial, SerialEnd: serial,
		Status: entity.BatchStatusPending, CreatedBy: "u", CreatedAt: createdAt,
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestLocalQueue_LlenaNoBloquea(t *testing.T) {
	q := NewLocalQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "a"))
	assert.ErrorIs(t, q.Enqueue(ctx, "b"), ErrQueueFull)

	id, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", id)
}

func TestLocalQueue_NextRespetaCancelacion(t *testing.T) {
	q := NewLocalQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPool_ProcesaTodos(t *testing.T) {
	q := NewLocalQueue(16)
	h := newRecordingHandler(10)
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(context.Background(), string(rune('a'+i))))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- NewWorkerPool(q, h, 3, zerolog.Nop()).Run(ctx) }()

	select {
	case <-h.done:
	case <-time.After(3 * time.Second):
		t.Fatal("el pool no procesó todos los lotes")
	}
	cancel()
	require.NoError(t, <-errCh)
	assert.Len(t, h.seen, 10)
}

// Caso: con la cola caída el worker espera entre lecturas en lugar de girar.
func TestWorkerPool_ColaCaidaEsperaEntreLecturas(t *testing.T) {
	src := &downSource{}
	p := NewWorkerPool(src, newRecordingHandler(1), 1, zerolog.Nop())
	p.minBackoff = 5 * time.Millisecond
	p.maxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	// 5 + 10 + 20 + 20 ... ms: unas 9 lecturas en 150ms.
	calls := src.calls.Load()
	assert.GreaterOrEqual(t, calls, int64(2))
	assert.LessOrEqual(t, calls, int64(30), "lecturas sin espera: %d", calls)
}

func TestNextBackoff(t *testing.T) {
	lo, hi := 100*time.Millisecond, time.Second
	assert.Equal(t, lo, nextBackoff(0, lo, hi))
	assert.Equal(t, 200*time.Millisecond, nextBackoff(lo, lo, hi))
	assert.Equal(t, hi, nextBackoff(800*time.Millisecond, lo, hi))
	assert.Equal(t, hi, nextBackoff(hi, lo, hi))
}

func TestDecodeJob(t *testing.T) {
	id, err := decodeJob(`{"type":"batch_materialize","payload":{"batch_id":"b-1"}}`)
	require.NoError(t, err)
	assert.Equal(t, "b-1", id)

	_, err = decodeJob(`{"type":"email","payload":{}}`)
	assert.Error(t, err)
	_, err = decodeJob(`no-json`)
	assert.Error(t, err)
	_, err = decodeJob(`{"type":"batch_materialize","payload":{}}`)
	assert.Error(t, err)
}

// Caso 1: solo se reencolan lotes PENDING más viejos que staleAfter.
func TestSweeper_ReencolaPendientesViejos(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	pendingBatch(t, store, "old", 1, now.Add(-10*time.Minute))
	pendingBatch(t, store, "fresh", 2, now)
	pendingBatch(t, store, "old-failed", 3, now.Add(-10*time.Minute))
	_, err := store.Batches().MarkFailed(context.Background(), "old-failed", "x")
	require.NoError(t, err)

	q := NewLocalQueue(8)
	s := NewSweeper(store.Batches(), q, LocalLeader{}, time.Minute, time.Minute, zerolog.Nop())
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	id, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", id)
}

// Caso 2: sin el lock de líder no se barre.
func TestSweeper_SinLiderNoBarre(t *testing.T) {
	store := memory.New()
	pendingBatch(t, store, "old", 1, time.Now().UTC().Add(-time.Hour))

	q := NewLocalQueue(8)
	s := NewSweeper(store.Batches(), q, busyLeader{}, time.Minute, time.Minute, zerolog.Nop())
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, q.ch)
}
