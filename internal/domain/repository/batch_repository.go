package repository

import (
	"context"
	"time"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para Batch (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el lote no existe.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	MarkCompleted(ctx context.Context, id string, at time.Time) error
	// MarkFailed solo transiciona lotes PENDING; devuelve false si el lote ya era terminal.
	MarkFailed(ctx context.Context, id, reason string) (bool, error)
	List(ctx context.Context, filter BatchFilter) ([]*entity.Batch, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]string, error)
}

// SerialCounterRepository reserva rangos contiguos de seriales por alcance.
type SerialCounterRepository interface {
	// Advance avanza el contador del alcance en qty y devuelve el primer serial reservado.
	// Debe ejecutarse dentro de la misma transacción que inserta el lote.
	Advance(ctx context.Context, scope entity.Scope, qty int64) (int64, error)
}
