package repository

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// InventoryLogRepository define el puerto de persistencia para los movimientos manuales.
type InventoryLogRepository interface {
	Create(ctx context.Context, entry *entity.InventoryLogEntry) error
	GetByID(ctx context.Context, id string) (*entity.InventoryLogEntry, error)
	Update(ctx context.Context, entry *entity.InventoryLogEntry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter LogFilter) ([]*entity.InventoryLogEntry, error)
}

// ScopeLocker serializa escrituras de stock por alcance dentro de la transacción actual.
// El bloqueo se libera al terminar la transacción.
type ScopeLocker interface {
	LockScope(ctx context.Context, scope entity.Scope) error
}
