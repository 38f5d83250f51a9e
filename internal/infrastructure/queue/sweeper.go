package queue

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

const (
	sweepLockKey   = "locks:batch_sweeper"
	sweepBatchSize = 100
)

// Leader decide qué instancia ejecuta el barrido en cada tick.
// Acquire devuelve ok=false si otra instancia ya lo tiene.
type Leader interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLeader elección de líder con un lock de Redis (bsm/redislock).
type RedisLeader struct {
	locker *redislock.Client
}

// NewRedisLeader construye el líder sobre el cliente Redis.
func NewRedisLeader(rdb *redis.Client) *RedisLeader {
	return &RedisLeader{locker: redislock.New(rdb)}
}

func (l *RedisLeader) Acquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	lock, err := l.locker.Obtain(ctx, sweepLockKey, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	release := func() {
		// Liberación con ctx propio: el del tick puede estar cancelado.
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = lock.Release(rctx)
	}
	return release, true, nil
}

// LocalLeader siempre es líder (una sola instancia).
type LocalLeader struct{}

func (LocalLeader) Acquire(context.Context, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

// Sweeper reencola lotes PENDING más viejos que staleAfter: cubre encolados fallidos
// y lotes interrumpidos por un reinicio. Reencolar es seguro porque el procesador es idempotente.
type Sweeper struct {
	batches    repository.BatchRepository
	queue      ports.BatchQueue
	leader     Leader
	interval   time.Duration
	staleAfter time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewSweeper construye el barrido.
func NewSweeper(batches repository.BatchRepository, queue ports.BatchQueue, leader Leader, interval, staleAfter time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		batches:    batches,
		queue:      queue,
		leader:     leader,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run ejecuta un barrido por tick hasta que ctx se cancela.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("sweeper: iniciado")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper: detenido")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("sweeper: barrido fallido")
			}
		}
	}
}

// Sweep reencola los lotes PENDING viejos y devuelve cuántos reencoló.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	release, ok, err := s.leader.Acquire(ctx, s.interval)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.log.Debug().Msg("sweeper: otra instancia tiene el lock")
		return 0, nil
	}
	defer release()

	ids, err := s.batches.ListStalePending(ctx, s.now().Add(-s.staleAfter), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("batch_id", id).Msg("sweeper: no se pudo reencolar")
			continue
		}
		n++
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("sweeper: lotes PENDING reencolados")
	}
	return n, nil
}
