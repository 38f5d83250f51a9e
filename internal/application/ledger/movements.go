package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/inventory"
	"github.com/jhoicas/qrcert-api/pkg/validator"
)

// CreateOutwardMovement registra una salida si no deja el stock del alcance en negativo.
// Lock del alcance, recálculo del stock e INSERT ocurren en la misma transacción.
func (uc *LedgerUseCase) CreateOutwardMovement(ctx context.Context, actor entity.Actor, in dto.MovementRequest) (*entity.InventoryLogEntry, error) {
	return uc.createMovement(ctx, actor, in, entity.LogTypeOutward)
}

// CreateInwardMovement registra una entrada manual.
func (uc *LedgerUseCase) CreateInwardMovement(ctx context.Context, actor entity.Actor, in dto.MovementRequest) (*entity.InventoryLogEntry, error) {
	return uc.createMovement(ctx, actor, in, entity.LogTypeInward)
}

func (uc *LedgerUseCase) createMovement(ctx context.Context, actor entity.Actor, in dto.MovementRequest, logType string) (*entity.InventoryLogEntry, error) {
	entry, err := uc.validateMovement(ctx, actor, in, logType)
	if err != nil {
		return nil, err
	}
	scope := entry.Scope()

	err = uc.txRunner.Run(ctx, func(repos ports.TxRepos) error {
		if err := repos.Locks.LockScope(ctx, scope); err != nil {
			return err
		}
		if logType == entity.LogTypeOutward {
			stock, err := inStock(ctx, repos.Stats, scope)
			if err != nil {
				return err
			}
			if !inventory.CanShip(stock, entry.Quantity) {
				return fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, stock, entry.Quantity)
			}
		}
		entry.CreatedAt = uc.now()
		return repos.InventoryLogs.Create(ctx, entry)
	})
	if err != nil {
		if logType == entity.LogTypeOutward && isInsufficient(err) {
			uc.metrics.OutwardRejected(scope.ProductCode)
		}
		return nil, err
	}

	uc.log.Info().
		Str("log_id", entry.ID).
		Str("type", logType).
		Str("scope", scope.Key()).
		Int64("quantity", entry.Quantity).
		Msg("movimiento registrado")
	return entry, nil
}

func (uc *LedgerUseCase) validateMovement(ctx context.Context, actor entity.Actor, in dto.MovementRequest, logType string) (*entity.InventoryLogEntry, error) {
	in.ProductCode = strings.TrimSpace(in.ProductCode)
	in.StateCode = strings.TrimSpace(in.StateCode)
	in.OEMCode = strings.TrimSpace(in.OEMCode)
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, validator.Describe(errs))
	}
	if (in.SerialFrom == nil) != (in.SerialTo == nil) {
		return nil, fmt.Errorf("%w: serial_from y serial_to van juntos", domain.ErrValidation)
	}
	if in.SerialFrom != nil && *in.SerialTo-*in.SerialFrom+1 != in.Quantity {
		return nil, fmt.Errorf("%w: el rango de seriales no coincide con quantity", domain.ErrValidation)
	}
	scope := entity.Scope{StateCode: in.StateCode, OEMCode: in.OEMCode, ProductCode: in.ProductCode}
	if !actor.CanManage(scope) {
		return nil, fmt.Errorf("%w: el actor no puede registrar movimientos en %s", domain.ErrForbidden, scope.Key())
	}
	if err := uc.checkScope(ctx, scope); err != nil {
		return nil, err
	}
	if in.DealerID != nil {
		d, err := uc.catalog.GetDealer(ctx, *in.DealerID)
		if err != nil {
			return nil, err
		}
		if d == nil || d.StateCode != scope.StateCode || !d.ServesOEM(scope.OEMCode) {
			return nil, fmt.Errorf("%w: dealer %q no válido para %s", domain.ErrValidation, *in.DealerID, scope.Key())
		}
	}
	return &entity.InventoryLogEntry{
		ID:          uuid.New().String(),
		Type:        logType,
		ProductCode: scope.ProductCode,
		StateCode:   scope.StateCode,
		OEMCode:     scope.OEMCode,
		Quantity:    in.Quantity,
		DealerID:    in.DealerID,
		SerialFrom:  in.SerialFrom,
		SerialTo:    in.SerialTo,
		Remark:      strings.TrimSpace(in.Remark),
		CreatedBy:   actor.UserID,
	}, nil
}

func (uc *LedgerUseCase) checkScope(ctx context.Context, scope entity.Scope) error {
	p, err := uc.catalog.GetProduct(ctx, scope.ProductCode)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: producto desconocido %q", domain.ErrValidation, scope.ProductCode)
	}
	st, err := uc.catalog.GetState(ctx, scope.StateCode)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: estado desconocido %q", domain.ErrValidation, scope.StateCode)
	}
	o, err := uc.catalog.GetOEM(ctx, scope.OEMCode)
	if err != nil {
		return err
	}
	if o == nil {
		return fmt.Errorf("%w: OEM desconocido %q", domain.ErrValidation, scope.OEMCode)
	}
	return nil
}
