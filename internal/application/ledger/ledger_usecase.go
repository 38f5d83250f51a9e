package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/inventory"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

// DefaultPageSize tope fijo del feed de movimientos.
const DefaultPageSize = 100

// LedgerUseCase reportes de inventario y movimientos manuales.
// Las salidas toman un lock por alcance dentro de la transacción, recalculan el stock
// con toda la historia y solo entonces insertan.
type LedgerUseCase struct {
	txRunner ports.TxRunner
	logs     repository.InventoryLogRepository
	batches  repository.BatchRepository
	catalog  repository.CatalogRepository
	metrics  ports.Metrics
	pageSize int
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso. pageSize <= 0 usa DefaultPageSize.
func NewLedgerUseCase(
	txRunner ports.TxRunner,
	logs repository.InventoryLogRepository,
	batches repository.BatchRepository,
	catalog repository.CatalogRepository,
	metrics ports.Metrics,
	pageSize int,
	log zerolog.Logger,
) *LedgerUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &LedgerUseCase{
		txRunner: txRunner,
		logs:     logs,
		batches:  batches,
		catalog:  catalog,
		metrics:  metrics,
		pageSize: pageSize,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Stats resultado de ComputeStats.
type Stats struct {
	Filter   repository.StatsFilter
	Products []inventory.ProductStats
	Total    inventory.ProductStats
}

// ComputeStats calcula inward/outward/used del rango del filtro e inStock con toda la historia.
// El estado y el OEM se fuerzan al alcance del actor.
func (uc *LedgerUseCase) ComputeStats(ctx context.Context, actor entity.Actor, filter repository.StatsFilter) (*Stats, error) {
	filter, err := bindFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	var period, allTime inventory.PeriodTotals
	err = uc.txRunner.Snapshot(ctx, func(repos ports.TxRepos) error {
		var err error
		if period, err = totals(ctx, repos.Stats, filter, true); err != nil {
			return err
		}
		if filter.From == nil && filter.To == nil {
			allTime = period
			return nil
		}
		allTime, err = totals(ctx, repos.Stats, filter.AllTime(), false)
		return err
	})
	if err != nil {
		return nil, err
	}
	rows, total := inventory.Compose(period, allTime)
	return &Stats{Filter: filter, Products: rows, Total: total}, nil
}

func totals(ctx context.Context, stats repository.StatsRepository, f repository.StatsFilter, withUsed bool) (inventory.PeriodTotals, error) {
	var (
		t   inventory.PeriodTotals
		err error
	)
	if t.Produced, err = stats.ProducedByProduct(ctx, f); err != nil {
		return t, err
	}
	if t.Inward, err = stats.LoggedByProduct(ctx, f, entity.LogTypeInward); err != nil {
		return t, err
	}
	if t.Outward, err = stats.LoggedByProduct(ctx, f, entity.LogTypeOutward); err != nil {
		return t, err
	}
	if withUsed {
		if t.Used, err = stats.UsedByProduct(ctx, f); err != nil {
			return t, err
		}
	}
	return t, nil
}

// inStock stock puntual del alcance con toda la historia, usando los repos de la tx actual.
func inStock(ctx context.Context, stats repository.StatsRepository, scope entity.Scope) (int64, error) {
	f := repository.StatsFilter{StateCode: scope.StateCode, OEMCode: scope.OEMCode, ProductCode: scope.ProductCode}
	t, err := totals(ctx, stats, f, false)
	if err != nil {
		return 0, err
	}
	p := scope.ProductCode
	return inventory.InStock(t.Produced[p], t.Inward[p], t.Outward[p]), nil
}

func bindFilter(actor entity.Actor, f repository.StatsFilter) (repository.StatsFilter, error) {
	switch actor.Role {
	case entity.RoleSuperAdmin, entity.RoleAdmin, entity.RoleStateAdmin, entity.RoleOEMAdmin, entity.RoleDealer:
	default:
		return f, fmt.Errorf("%w: rol %q", domain.ErrForbidden, actor.Role)
	}
	f.StateCode = actor.BindState(f.StateCode)
	f.OEMCode = actor.BindOEM(f.OEMCode)
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, fmt.Errorf("%w: from posterior a to", domain.ErrValidation)
	}
	return f, nil
}
