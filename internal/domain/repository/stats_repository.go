package repository

import "context"

// StatsRepository agrega cantidades por código de producto para el alcance y rango del filtro.
type StatsRepository interface {
	// ProducedByProduct suma la cantidad de lotes COMPLETED (por created_at del lote).
	ProducedByProduct(ctx context.Context, filter StatsFilter) (map[string]int64, error)
	// LoggedByProduct suma movimientos manuales del tipo dado (por created_at del movimiento).
	LoggedByProduct(ctx context.Context, filter StatsFilter, logType string) (map[string]int64, error)
	// UsedByProduct cuenta certificados emitidos (por generated_at del certificado).
	UsedByProduct(ctx context.Context, filter StatsFilter) (map[string]int64, error)
}
