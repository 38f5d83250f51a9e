package ports

import (
	"context"
	"time"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// BatchQueue encola lotes PENDING para materialización asíncrona.
type BatchQueue interface {
	Enqueue(ctx context.Context, batchID string) error
}

// DeadLetter registro de un lote que terminó en FAILED, para inspección manual.
type DeadLetter struct {
	BatchID  string    `json:"batch_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// DeadLetterSink recibe los lotes fallidos. No reintenta.
type DeadLetterSink interface {
	Send(ctx context.Context, entry DeadLetter)
}

// BatchEvent transición de estado de un lote. Scope decide qué suscriptores lo reciben.
type BatchEvent struct {
	BatchID string       `json:"batch_id"`
	Status  string       `json:"status"`
	Reason  string       `json:"reason,omitempty"`
	Scope   entity.Scope `json:"-"`
}

// BatchEventPublisher notifica transiciones de lotes (p. ej. a clientes WebSocket).
// El estado persistido sigue siendo la fuente de verdad.
type BatchEventPublisher interface {
	Publish(ev BatchEvent)
}
