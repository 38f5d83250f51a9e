package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/qrcert-api/internal/domain"
)

const (
	// Espera entre lecturas fallidas de la cola; se duplica hasta maxReadBackoff.
	minReadBackoff = 200 * time.Millisecond
	maxReadBackoff = 10 * time.Second
)

// BatchHandler materializa un lote. Lo implementa processing.BatchProcessor.
type BatchHandler interface {
	Process(ctx context.Context, batchID string) error
}

// WorkerPool consume lotes de la cola con un número fijo de goroutines.
type WorkerPool struct {
	source  Source
	handler BatchHandler
	size    int
	log     zerolog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewWorkerPool construye el pool.
func NewWorkerPool(source Source, handler BatchHandler, size int, log zerolog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		source:     source,
		handler:    handler,
		size:       size,
		log:        log,
		minBackoff: minReadBackoff,
		maxBackoff: maxReadBackoff,
	}
}

// Run bloquea hasta que ctx se cancela. Cada worker vuelve a revisar ctx tras cada espera en la cola.
func (p *WorkerPool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		id := i
		g.Go(func() error {
			p.work(gctx, id)
			return nil
		})
	}
	p.log.Info().Int("workers", p.size).Msg("worker pool iniciado")
	err := g.Wait()
	p.log.Info().Msg("worker pool detenido")
	return err
}

func (p *WorkerPool) work(ctx context.Context, id int) {
	var backoff time.Duration
	for {
		if ctx.Err() != nil {
			return
		}
		batchID, err := p.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Solo el primer fallo de la racha se registra como Error.
			if backoff == 0 {
				p.log.Error().Err(err).Int("worker", id).Msg("no se pudo leer la cola, reintentando con espera")
			} else {
				p.log.Debug().Err(err).Int("worker", id).Dur("backoff", backoff).Msg("cola sigue sin responder")
			}
			backoff = nextBackoff(backoff, p.minBackoff, p.maxBackoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		if backoff != 0 {
			p.log.Info().Int("worker", id).Msg("cola recuperada")
			backoff = 0
		}
		if batchID == "" {
			continue
		}
		if err := p.handler.Process(ctx, batchID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			// El procesador ya registró FAILED o dejó el lote PENDING para el barrido.
			p.log.Debug().Err(err).Int("worker", id).Str("batch_id", batchID).Msg("lote no completado")
		}
	}
}

// nextBackoff duplica la espera actual dentro de [lo, hi].
func nextBackoff(cur, lo, hi time.Duration) time.Duration {
	if cur < lo {
		return lo
	}
	if cur*2 > hi {
		return hi
	}
	return cur * 2
}
