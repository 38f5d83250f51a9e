package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
	"github.com/jhoicas/qrcert-api/pkg/validator"
)

// ListLogs une movimientos manuales y lotes COMPLETED (como entradas) en un feed
// de más reciente a más antiguo, con el tope fijo de página.
// Empates de timestamp no tienen orden garantizado.
func (uc *LedgerUseCase) ListLogs(ctx context.Context, actor entity.Actor, filter repository.StatsFilter, logType string) ([]entity.LedgerRow, error) {
	filter, err := bindFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	switch logType {
	case "", entity.LogTypeInward, entity.LogTypeOutward:
	default:
		return nil, fmt.Errorf("%w: type desconocido %q", domain.ErrValidation, logType)
	}

	manual, err := uc.logs.List(ctx, repository.LogFilter{Scope: filter, Type: logType, Limit: uc.pageSize})
	if err != nil {
		return nil, err
	}
	rows := make([]entity.LedgerRow, 0, len(manual))
	for _, e := range manual {
		rows = append(rows, entity.LedgerRow{
			ID:          e.ID,
			Source:      entity.LogSourceManual,
			Type:        e.Type,
			ProductCode: e.ProductCode,
			StateCode:   e.StateCode,
			OEMCode:     e.OEMCode,
			Quantity:    e.Quantity,
			DealerID:    e.DealerID,
			SerialFrom:  e.SerialFrom,
			SerialTo:    e.SerialTo,
			Remark:      e.Remark,
			CreatedBy:   e.CreatedBy,
			CreatedAt:   e.CreatedAt,
		})
	}

	if logType != entity.LogTypeOutward {
		batches, err := uc.batches.List(ctx, repository.BatchFilter{
			Scope:  filter,
			Status: entity.BatchStatusCompleted,
			Limit:  uc.pageSize,
		})
		if err != nil {
			return nil, err
		}
		for _, b := range batches {
			from, to := b.SerialStart, b.SerialEnd
			rows = append(rows, entity.LedgerRow{
				ID:          b.ID,
				Source:      entity.LogSourceBatch,
				Type:        entity.LogTypeInward,
				ProductCode: b.ProductCode,
				StateCode:   b.StateCode,
				OEMCode:     b.OEMCode,
				Quantity:    b.Quantity,
				SerialFrom:  &from,
				SerialTo:    &to,
				CreatedBy:   b.CreatedBy,
				CreatedAt:   b.CreatedAt,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if len(rows) > uc.pageSize {
		rows = rows[:uc.pageSize]
	}
	return rows, nil
}

// CorrectLogEntry corrige cantidad o comentario de un movimiento (solo SUPER_ADMIN).
// La corrección se rechaza si deja el stock del alcance en negativo.
func (uc *LedgerUseCase) CorrectLogEntry(ctx context.Context, actor entity.Actor, id string, in dto.CorrectLogRequest) (*entity.InventoryLogEntry, error) {
	if actor.Role != entity.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: solo SUPER_ADMIN corrige movimientos", domain.ErrForbidden)
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, validator.Describe(errs))
	}
	if in.Quantity == nil && in.Remark == nil {
		return nil, fmt.Errorf("%w: nada que corregir", domain.ErrValidation)
	}

	var out *entity.InventoryLogEntry
	err := uc.withLockedEntry(ctx, id, func(repos ports.TxRepos, e *entity.InventoryLogEntry) error {
		updated := *e
		if in.Quantity != nil {
			updated.Quantity = *in.Quantity
			if updated.SerialFrom != nil && *updated.SerialTo-*updated.SerialFrom+1 != updated.Quantity {
				return fmt.Errorf("%w: el rango de seriales no coincide con quantity", domain.ErrValidation)
			}
		}
		if in.Remark != nil {
			updated.Remark = strings.TrimSpace(*in.Remark)
		}
		if updated.Quantity != e.Quantity {
			stock, err := inStock(ctx, repos.Stats, e.Scope())
			if err != nil {
				return err
			}
			if after := stock - e.SignedQuantity() + updated.SignedQuantity(); after < 0 {
				return fmt.Errorf("%w: la corrección deja el stock en %d", domain.ErrInsufficientStock, after)
			}
		}
		at := uc.now()
		updated.UpdatedAt = &at
		if err := repos.InventoryLogs.Update(ctx, &updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Warn().Str("log_id", id).Str("user_id", actor.UserID).Msg("movimiento corregido")
	return out, nil
}

// PurgeLogEntry elimina un movimiento (solo SUPER_ADMIN) si no deja el stock en negativo.
func (uc *LedgerUseCase) PurgeLogEntry(ctx context.Context, actor entity.Actor, id string) error {
	if actor.Role != entity.RoleSuperAdmin {
		return fmt.Errorf("%w: solo SUPER_ADMIN purga movimientos", domain.ErrForbidden)
	}
	err := uc.withLockedEntry(ctx, id, func(repos ports.TxRepos, e *entity.InventoryLogEntry) error {
		stock, err := inStock(ctx, repos.Stats, e.Scope())
		if err != nil {
			return err
		}
		if after := stock - e.SignedQuantity(); after < 0 {
			return fmt.Errorf("%w: la purga deja el stock en %d", domain.ErrInsufficientStock, after)
		}
		return repos.InventoryLogs.Delete(ctx, e.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Warn().Str("log_id", id).Str("user_id", actor.UserID).Msg("movimiento purgado")
	return nil
}

// withLockedEntry lee el movimiento, bloquea su alcance y lo vuelve a leer ya bajo el lock.
func (uc *LedgerUseCase) withLockedEntry(ctx context.Context, id string, fn func(ports.TxRepos, *entity.InventoryLogEntry) error) error {
	return uc.txRunner.Run(ctx, func(repos ports.TxRepos) error {
		e, err := repos.InventoryLogs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
		}
		if err := repos.Locks.LockScope(ctx, e.Scope()); err != nil {
			return err
		}
		if e, err = repos.InventoryLogs.GetByID(ctx, id); err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
		}
		return fn(repos, e)
	})
}

func isInsufficient(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock)
}
