package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.InventoryLogRepository = (*InventoryLogRepo)(nil)

// InventoryLogRepo implementación en memoria de InventoryLogRepository.
type InventoryLogRepo struct {
	s  *Store
	tx *state
}

// Create guarda un movimiento.
func (r *InventoryLogRepo) Create(_ context.Context, entry *entity.InventoryLogEntry) error {
	return r.s.view(r.tx, func(st *state) error {
		if _, ok := st.logs[entry.ID]; ok {
			return fmt.Errorf("create inventory log: %w: id duplicado", domain.ErrConflict)
		}
		cp := *entry
		st.logs[entry.ID] = &cp
		return nil
	})
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryLogRepo) GetByID(_ context.Context, id string) (*entity.InventoryLogEntry, error) {
	var out *entity.InventoryLogEntry
	err := r.s.view(r.tx, func(st *state) error {
		if e, ok := st.logs[id]; ok {
			cp := *e
			out = &cp
		}
		return nil
	})
	return out, err
}

// Update reemplaza un movimiento existente.
func (r *InventoryLogRepo) Update(_ context.Context, entry *entity.InventoryLogEntry) error {
	return r.s.view(r.tx, func(st *state) error {
		if _, ok := st.logs[entry.ID]; !ok {
			return fmt.Errorf("update inventory log: %w", domain.ErrNotFound)
		}
		cp := *entry
		st.logs[entry.ID] = &cp
		return nil
	})
}

// Delete elimina un movimiento.
func (r *InventoryLogRepo) Delete(_ context.Context, id string) error {
	return r.s.view(r.tx, func(st *state) error {
		if _, ok := st.logs[id]; !ok {
			return fmt.Errorf("delete inventory log: %w", domain.ErrNotFound)
		}
		delete(st.logs, id)
		return nil
	})
}

// List lista movimientos del alcance, más recientes primero.
func (r *InventoryLogRepo) List(_ context.Context, f repository.LogFilter) ([]*entity.InventoryLogEntry, error) {
	var list []*entity.InventoryLogEntry
	err := r.s.view(r.tx, func(st *state) error {
		for _, e := range st.logs {
			if !f.Scope.Matches(e.StateCode, e.OEMCode, e.ProductCode) || !f.Scope.InRange(e.CreatedAt) {
				continue
			}
			if f.Type != "" && e.Type != f.Type {
				continue
			}
			cp := *e
			list = append(list, &cp)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, f.Limit, 0), err
}
