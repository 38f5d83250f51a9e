package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var (
	_ repository.BatchRepository         = (*BatchRepo)(nil)
	_ repository.SerialCounterRepository = (*SerialCounterRepo)(nil)
)

const batchColumns = `id, product_code, state_code, oem_code, quantity, serial_start, serial_end,
	status, failure_reason, created_by, created_at, completed_at`

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create inserta el lote. El EXCLUDE batches_no_overlap rechaza rangos solapados en el mismo alcance.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO batches (id, product_code, state_code, oem_code, quantity, serial_start, serial_end,
			status, failure_reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.ProductCode, b.StateCode, b.OEMCode, b.Quantity, b.SerialStart, b.SerialEnd,
		b.Status, b.FailureReason, b.CreatedBy, b.CreatedAt,
	)
	if err != nil {
		if isExclusionViolation(err) || isUniqueViolation(err) {
			return fmt.Errorf("create batch: %w: %s", domain.ErrConflict, constraintName(err))
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID; (nil, nil) si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *BatchRepo) get(ctx context.Context, query, id string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// MarkCompleted pasa el lote a COMPLETED.
func (r *BatchRepo) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE batches SET status = 'COMPLETED', completed_at = $2 WHERE id = $1 AND status = 'PENDING'`, id, at)
	if err != nil {
		return fmt.Errorf("mark batch completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark batch completed: %w: lote %s no está PENDING", domain.ErrConflict, id)
	}
	return nil
}

// MarkFailed pasa a FAILED solo si el lote sigue PENDING.
func (r *BatchRepo) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE batches SET status = 'FAILED', failure_reason = $2 WHERE id = $1 AND status = 'PENDING'`, id, reason)
	if err != nil {
		return false, fmt.Errorf("mark batch failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List lista lotes del filtro, más recientes primero.
func (r *BatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	w := scopeWhere(f.Scope, "created_at")
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	query := `SELECT ` + batchColumns + ` FROM batches` + w.sql() + ` ORDER BY created_at DESC, id`
	args := w.args
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var list []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ListStalePending devuelve IDs de lotes PENDING creados antes de createdBefore, más antiguos primero.
func (r *BatchRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM batches
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale batches: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(
		&b.ID, &b.ProductCode, &b.StateCode, &b.OEMCode, &b.Quantity, &b.SerialStart, &b.SerialEnd,
		&b.Status, &b.FailureReason, &b.CreatedBy, &b.CreatedAt, &b.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SerialCounterRepo contador de seriales por alcance.
type SerialCounterRepo struct {
	q Querier
}

// NewSerialCounterRepository construye el adaptador. Debe recibir la tx que inserta el lote.
func NewSerialCounterRepository(q Querier) *SerialCounterRepo {
	return &SerialCounterRepo{q: q}
}

// Advance avanza el contador del alcance en qty. El upsert bloquea la fila del alcance
// hasta el fin de la tx, así que reservas concurrentes reciben rangos disjuntos.
func (r *SerialCounterRepo) Advance(ctx context.Context, scope entity.Scope, qty int64) (int64, error) {
	query := `
		INSERT INTO serial_counters (state_code, oem_code, product_code, last_serial)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (state_code, oem_code, product_code)
		DO UPDATE SET last_serial = serial_counters.last_serial + EXCLUDED.last_serial
		RETURNING last_serial`
	var last int64
	if err := r.q.QueryRow(ctx, query, scope.StateCode, scope.OEMCode, scope.ProductCode, qty).Scan(&last); err != nil {
		return 0, fmt.Errorf("advance serial counter: %w", err)
	}
	return last - qty + 1, nil
}

// where construye cláusulas WHERE con placeholders numerados.
type where struct {
	conds []string
	args  []any
}

// add agrega una condición; cada "?" se reemplaza por el siguiente $n.
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// scopeWhere traduce un StatsFilter a condiciones sobre las columnas de alcance y la columna de fecha dada.
func scopeWhere(f repository.StatsFilter, timeColumn string) *where {
	w := &where{}
	if f.StateCode != "" {
		w.add("state_code = ?", f.StateCode)
	}
	if f.OEMCode != "" {
		w.add("oem_code = ?", f.OEMCode)
	}
	if f.ProductCode != "" {
		w.add("product_code = ?", f.ProductCode)
	}
	if f.From != nil {
		w.add(timeColumn+" >= ?", *f.From)
	}
	if f.To != nil {
		w.add(timeColumn+" <= ?", *f.To)
	}
	return w
}
