package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var (
	_ repository.InventoryLogRepository = (*InventoryLogRepo)(nil)
	_ repository.ScopeLocker            = (*ScopeLocker)(nil)
)

const logColumns = `id, type, product_code, state_code, oem_code, quantity, dealer_id,
	serial_from, serial_to, remark, created_by, created_at, updated_at`

// InventoryLogRepo implementación de InventoryLogRepository sobre PostgreSQL (usable con pool o tx).
type InventoryLogRepo struct {
	q Querier
}

// NewInventoryLogRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewInventoryLogRepository(q Querier) *InventoryLogRepo {
	return &InventoryLogRepo{q: q}
}

// Create inserta un movimiento.
func (r *InventoryLogRepo) Create(ctx context.Context, e *entity.InventoryLogEntry) error {
	query := `
		INSERT INTO inventory_logs (id, type, product_code, state_code, oem_code, quantity, dealer_id,
			serial_from, serial_to, remark, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Type, e.ProductCode, e.StateCode, e.OEMCode, e.Quantity, e.DealerID,
		e.SerialFrom, e.SerialTo, e.Remark, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create inventory log: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create inventory log: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *InventoryLogRepo) GetByID(ctx context.Context, id string) (*entity.InventoryLogEntry, error) {
	e, err := scanLog(r.q.QueryRow(ctx, `SELECT `+logColumns+` FROM inventory_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory log: %w", err)
	}
	return e, nil
}

// Update actualiza cantidad, comentario y updated_at (corrección administrativa).
func (r *InventoryLogRepo) Update(ctx context.Context, e *entity.InventoryLogEntry) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_logs SET quantity = $2, remark = $3, updated_at = $4 WHERE id = $1`,
		e.ID, e.Quantity, e.Remark, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inventory log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update inventory log: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete elimina un movimiento (purga administrativa).
func (r *InventoryLogRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inventory log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete inventory log: %w", domain.ErrNotFound)
	}
	return nil
}

// List lista movimientos del filtro, más recientes primero.
func (r *InventoryLogRepo) List(ctx context.Context, f repository.LogFilter) ([]*entity.InventoryLogEntry, error) {
	w := scopeWhere(f.Scope, "created_at")
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	query := `SELECT ` + logColumns + ` FROM inventory_logs` + w.sql() + ` ORDER BY created_at DESC`
	args := w.args
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory logs: %w", err)
	}
	defer rows.Close()

	var list []*entity.InventoryLogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory log: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanLog(row pgx.Row) (*entity.InventoryLogEntry, error) {
	var e entity.InventoryLogEntry
	err := row.Scan(
		&e.ID, &e.Type, &e.ProductCode, &e.StateCode, &e.OEMCode, &e.Quantity, &e.DealerID,
		&e.SerialFrom, &e.SerialTo, &e.Remark, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ScopeLocker serializa escrituras de stock por alcance con pg_advisory_xact_lock.
type ScopeLocker struct {
	q Querier
}

// NewScopeLocker construye el locker. Debe recibir la tx: el lock se libera en Commit o Rollback.
func NewScopeLocker(q Querier) *ScopeLocker {
	return &ScopeLocker{q: q}
}

// LockScope toma el advisory lock transaccional del alcance.
func (l *ScopeLocker) LockScope(ctx context.Context, scope entity.Scope) error {
	_, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "stock:"+scope.Key())
	if err != nil {
		return fmt.Errorf("lock scope %s: %w", scope.Key(), err)
	}
	return nil
}
