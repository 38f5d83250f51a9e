package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var (
	_ repository.BatchRepository         = (*BatchRepo)(nil)
	_ repository.SerialCounterRepository = (*CounterRepo)(nil)
)

// BatchRepo implementación en memoria de BatchRepository.
type BatchRepo struct {
	s  *Store
	tx *state
}

// Create guarda el lote; rechaza rangos que se solapen con otro lote del mismo alcance.
func (r *BatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	return r.s.view(r.tx, func(st *state) error {
		if _, ok := st.batches[batch.ID]; ok {
			return fmt.Errorf("create batch: %w: id duplicado", domain.ErrConflict)
		}
		for _, b := range st.batches {
			if b.Scope() == batch.Scope() && b.SerialStart <= batch.SerialEnd && batch.SerialStart <= b.SerialEnd {
				return fmt.Errorf("create batch: %w: rango solapado con lote %s", domain.ErrConflict, b.ID)
			}
		}
		cp := *batch
		st.batches[batch.ID] = &cp
		return nil
	})
}

// GetByID obtiene un lote por ID.
func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.s.view(r.tx, func(st *state) error {
		if b, ok := st.batches[id]; ok {
			cp := *b
			out = &cp
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción ya tiene acceso exclusivo.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

// MarkCompleted pasa el lote a COMPLETED.
func (r *BatchRepo) MarkCompleted(_ context.Context, id string, at time.Time) error {
	return r.s.view(r.tx, func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return fmt.Errorf("mark completed: %w", domain.ErrNotFound)
		}
		cp := *b
		cp.Status = entity.BatchStatusCompleted
		cp.CompletedAt = &at
		st.batches[id] = &cp
		return nil
	})
}

// MarkFailed pasa el lote a FAILED solo si sigue PENDING.
func (r *BatchRepo) MarkFailed(_ context.Context, id, reason string) (bool, error) {
	var changed bool
	err := r.s.view(r.tx, func(st *state) error {
		b, ok := st.batches[id]
		if !ok || b.Status != entity.BatchStatusPending {
			return nil
		}
		cp := *b
		cp.Status = entity.BatchStatusFailed
		cp.FailureReason = reason
		st.batches[id] = &cp
		changed = true
		return nil
	})
	return changed, err
}

// List lista lotes del alcance, más recientes primero.
func (r *BatchRepo) List(_ context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	var list []*entity.Batch
	err := r.s.view(r.tx, func(st *state) error {
		for _, b := range st.batches {
			if !f.Scope.Matches(b.StateCode, b.OEMCode, b.ProductCode) || !f.Scope.InRange(b.CreatedAt) {
				continue
			}
			if f.Status != "" && b.Status != f.Status {
				continue
			}
			cp := *b
			list = append(list, &cp)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, f.Limit, f.Offset), err
}

// ListStalePending devuelve IDs de lotes PENDING creados antes de createdBefore, más antiguos primero.
func (r *BatchRepo) ListStalePending(_ context.Context, createdBefore time.Time, limit int) ([]string, error) {
	var stale []*entity.Batch
	err := r.s.view(r.tx, func(st *state) error {
		for _, b := range st.batches {
			if b.Status == entity.BatchStatusPending && b.CreatedAt.Before(createdBefore) {
				stale = append(stale, b)
			}
		}
		return nil
	})
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	stale = page(stale, limit, 0)
	ids := make([]string, 0, len(stale))
	for _, b := range stale {
		ids = append(ids, b.ID)
	}
	return ids, err
}

// CounterRepo implementación en memoria de SerialCounterRepository.
type CounterRepo struct {
	s  *Store
	tx *state
}

// Advance reserva qty seriales contiguos para el alcance; el primer serial de un alcance es 1.
func (r *CounterRepo) Advance(_ context.Context, scope entity.Scope, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("advance counter: %w: cantidad %d", domain.ErrValidation, qty)
	}
	var start int64
	err := r.s.view(r.tx, func(st *state) error {
		next := st.counters[scope.Key()]
		if next == 0 {
			next = 1
		}
		start = next
		st.counters[scope.Key()] = next + qty
		return nil
	})
	return start, err
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
