package memory

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo agregados en memoria.
type StatsRepo struct {
	s  *Store
	tx *state
}

// ProducedByProduct suma la cantidad de lotes COMPLETED.
func (r *StatsRepo) ProducedByProduct(_ context.Context, f repository.StatsFilter) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.s.view(r.tx, func(st *state) error {
		for _, b := range st.batches {
			if b.Status == entity.BatchStatusCompleted &&
				f.Matches(b.StateCode, b.OEMCode, b.ProductCode) && f.InRange(b.CreatedAt) {
				out[b.ProductCode] += b.Quantity
			}
		}
		return nil
	})
	return out, err
}

// LoggedByProduct suma movimientos manuales del tipo dado.
func (r *StatsRepo) LoggedByProduct(_ context.Context, f repository.StatsFilter, logType string) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.s.view(r.tx, func(st *state) error {
		for _, e := range st.logs {
			if e.Type == logType && f.Matches(e.StateCode, e.OEMCode, e.ProductCode) && f.InRange(e.CreatedAt) {
				out[e.ProductCode] += e.Quantity
			}
		}
		return nil
	})
	return out, err
}

// UsedByProduct cuenta certificados emitidos.
func (r *StatsRepo) UsedByProduct(_ context.Context, f repository.StatsFilter) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.s.view(r.tx, func(st *state) error {
		for _, c := range st.certs {
			if f.Matches(c.StateCode, c.OEMCode, c.ProductCode) && f.InRange(c.GeneratedAt) {
				out[c.ProductCode]++
			}
		}
		return nil
	})
	return out, err
}
