package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo agregados de inventario por producto.
type StatsRepo struct {
	q Querier
}

// NewStatsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

// ProducedByProduct suma la cantidad de lotes COMPLETED por created_at del lote.
func (r *StatsRepo) ProducedByProduct(ctx context.Context, f repository.StatsFilter) (map[string]int64, error) {
	w := scopeWhere(f, "created_at")
	w.add("status = ?", "COMPLETED")
	return r.sumBy(ctx, `SELECT product_code, COALESCE(SUM(quantity), 0)::bigint FROM batches`+w.sql()+` GROUP BY product_code`, w.args)
}

// LoggedByProduct suma movimientos manuales del tipo dado por created_at.
func (r *StatsRepo) LoggedByProduct(ctx context.Context, f repository.StatsFilter, logType string) (map[string]int64, error) {
	w := scopeWhere(f, "created_at")
	w.add("type = ?", logType)
	return r.sumBy(ctx, `SELECT product_code, COALESCE(SUM(quantity), 0)::bigint FROM inventory_logs`+w.sql()+` GROUP BY product_code`, w.args)
}

// UsedByProduct cuenta certificados por generated_at.
func (r *StatsRepo) UsedByProduct(ctx context.Context, f repository.StatsFilter) (map[string]int64, error) {
	w := scopeWhere(f, "generated_at")
	return r.sumBy(ctx, `SELECT product_code, count(*) FROM certificates`+w.sql()+` GROUP BY product_code`, w.args)
}

func (r *StatsRepo) sumBy(ctx context.Context, query string, args []any) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			code string
			n    int64
		)
		if err := rows.Scan(&code, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out[code] = n
	}
	return out, rows.Err()
}
