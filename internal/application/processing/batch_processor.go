package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/qrvalue"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

const (
	// failTimeout tiempo máximo para registrar el FAILED tras un rollback.
	failTimeout = 5 * time.Second
	// markFailedAttempts intentos de registrar FAILED; la espera crece failRetryWait por intento.
	markFailedAttempts = 3
	failRetryWait      = 100 * time.Millisecond
)

// BatchProcessor materializa un QrCode por serial del rango y cierra el lote.
// Todo el lote se inserta en una única transacción: COMPLETED implica quantity códigos.
type BatchProcessor struct {
	txRunner ports.TxRunner
	batches  repository.BatchRepository
	signer   *qrvalue.Signer
	dlq      ports.DeadLetterSink
	events   ports.BatchEventPublisher
	metrics  ports.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewBatchProcessor construye el procesador.
func NewBatchProcessor(
	txRunner ports.TxRunner,
	batches repository.BatchRepository,
	signer *qrvalue.Signer,
	dlq ports.DeadLetterSink,
	events ports.BatchEventPublisher,
	metrics ports.Metrics,
	log zerolog.Logger,
) *BatchProcessor {
	return &BatchProcessor{
		txRunner: txRunner,
		batches:  batches,
		signer:   signer,
		dlq:      dlq,
		events:   events,
		metrics:  metrics,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Process materializa el lote. Es idempotente: un lote que ya no está PENDING se ignora,
// así que entregas duplicadas de la cola no tienen efecto.
func (p *BatchProcessor) Process(ctx context.Context, batchID string) error {
	started := time.Now()
	var (
		done    *entity.Batch
		scope   entity.Scope
		skipped bool
	)
	err := p.txRunner.Run(ctx, func(repos ports.TxRepos) error {
		b, err := repos.Batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, batchID)
		}
		scope = b.Scope()
		if b.Status != entity.BatchStatusPending {
			skipped = true
			return nil
		}
		codes, err := p.materialize(b)
		if err != nil {
			return err
		}
		n, err := repos.QrCodes.BulkCreate(ctx, codes)
		if err != nil {
			return err
		}
		if n != b.Quantity {
			return fmt.Errorf("se insertaron %d de %d códigos", n, b.Quantity)
		}
		at := p.now()
		if err := repos.Batches.MarkCompleted(ctx, b.ID, at); err != nil {
			return err
		}
		b.Status = entity.BatchStatusCompleted
		b.CompletedAt = &at
		done = b
		return nil
	})

	switch {
	case err == nil && skipped:
		p.log.Debug().Str("batch_id", batchID).Msg("lote ya procesado, se ignora")
		return nil
	case err == nil:
		p.metrics.BatchFinished(entity.BatchStatusCompleted, done.Quantity, time.Since(started))
		p.events.Publish(ports.BatchEvent{BatchID: done.ID, Status: done.Status, Scope: scope})
		p.log.Info().
			Str("batch_id", done.ID).
			Int64("codes", done.Quantity).
			Dur("elapsed", time.Since(started)).
			Msg("lote completado")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		p.log.Warn().Str("batch_id", batchID).Msg("lote inexistente en la cola")
		return err
	case ctx.Err() != nil:
		// Apagado o cancelación: el lote queda PENDING y lo retoma el barrido.
		p.log.Warn().Err(err).Str("batch_id", batchID).Msg("materialización interrumpida")
		return err
	}

	p.fail(ctx, batchID, scope, err, time.Since(started))
	return err
}

func (p *BatchProcessor) materialize(b *entity.Batch) ([]*entity.QrCode, error) {
	if b.Serials() != b.Quantity || b.Quantity <= 0 {
		return nil, fmt.Errorf("rango inconsistente [%d, %d] para cantidad %d", b.SerialStart, b.SerialEnd, b.Quantity)
	}
	d, err := p.signer.ForBatch(b.ID)
	if err != nil {
		return nil, err
	}
	now := p.now()
	codes := make([]*entity.QrCode, 0, b.Quantity)
	for serial := b.SerialStart; serial <= b.SerialEnd; serial++ {
		v, err := d.Value(serial)
		if err != nil {
			return nil, err
		}
		codes = append(codes, &entity.QrCode{
			ID:        uuid.New().String(),
			BatchID:   b.ID,
			Serial:    serial,
			Value:     v,
			CreatedAt: now,
		})
	}
	return codes, nil
}

// fail registra FAILED fuera de la transacción revertida. No hay reintento de la materialización.
// Si ni siquiera FAILED se puede escribir, el lote queda PENDING y el barrido lo vuelve a entregar.
func (p *BatchProcessor) fail(ctx context.Context, batchID string, scope entity.Scope, cause error, elapsed time.Duration) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
	defer cancel()

	reason := cause.Error()
	changed, err := p.markFailed(fctx, batchID, reason)
	if err != nil {
		p.log.Error().Err(err).AnErr("cause", cause).Str("batch_id", batchID).
			Int("attempts", markFailedAttempts).
			Msg("no se pudo marcar el lote como FAILED, queda PENDING para el barrido")
		return
	}
	if !changed {
		return
	}
	if !scope.Complete() {
		if b, err := p.batches.GetByID(fctx, batchID); err == nil && b != nil {
			scope = b.Scope()
		}
	}
	p.metrics.BatchFinished(entity.BatchStatusFailed, 0, elapsed)
	p.events.Publish(ports.BatchEvent{BatchID: batchID, Status: entity.BatchStatusFailed, Reason: reason, Scope: scope})
	p.dlq.Send(fctx, ports.DeadLetter{BatchID: batchID, Reason: reason, FailedAt: p.now()})
	p.log.Error().Err(cause).Str("batch_id", batchID).Msg("lote FAILED")
}

// markFailed reintenta MarkFailed hasta markFailedAttempts veces.
func (p *BatchProcessor) markFailed(ctx context.Context, batchID, reason string) (bool, error) {
	var err error
	for attempt := 1; attempt <= markFailedAttempts; attempt++ {
		var changed bool
		changed, err = p.batches.MarkFailed(ctx, batchID, reason)
		if err == nil {
			return changed, nil
		}
		if attempt == markFailedAttempts {
			break
		}
		p.log.Warn().Err(err).Str("batch_id", batchID).Int("attempt", attempt).Msg("reintentando marcar FAILED")
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(time.Duration(attempt) * failRetryWait):
		}
	}
	return false, err
}
