package issuance

import (
	"context"
	"fmt"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
	"github.com/jhoicas/qrcert-api/pkg/daterange"
)

// GetBatch devuelve el estado de un lote. Un lote fuera del alcance del actor es NotFound.
func (uc *ReserveBatchUseCase) GetBatch(ctx context.Context, actor entity.Actor, id string) (*entity.Batch, error) {
	b, err := uc.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil || !actor.CanView(b.Scope()) {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	return b, nil
}

// ListBatches lista lotes del alcance del actor, más recientes primero.
func (uc *ReserveBatchUseCase) ListBatches(ctx context.Context, actor entity.Actor, q dto.BatchQuery) ([]*entity.Batch, error) {
	if !actor.IsAdmin() && actor.Role != entity.RoleStateAdmin && actor.Role != entity.RoleOEMAdmin && actor.Role != entity.RoleDealer {
		return nil, fmt.Errorf("%w: rol %q", domain.ErrForbidden, actor.Role)
	}
	from, to, err := daterange.Parse(q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	switch q.Status {
	case "", entity.BatchStatusPending, entity.BatchStatusCompleted, entity.BatchStatusFailed:
	default:
		return nil, fmt.Errorf("%w: status desconocido %q", domain.ErrValidation, q.Status)
	}
	q.DefaultPage(uc.cfg.MaxPageSize)
	return uc.batches.List(ctx, repository.BatchFilter{
		Scope: repository.StatsFilter{
			StateCode:   actor.BindState(q.StateCode),
			OEMCode:     actor.BindOEM(q.OEMCode),
			ProductCode: q.ProductCode,
			From:        from,
			To:          to,
		},
		Status: q.Status,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// ListCodes lista los códigos de un lote COMPLETED para impresión.
func (uc *ReserveBatchUseCase) ListCodes(ctx context.Context, actor entity.Actor, id string, page dto.PageRequest) ([]*entity.QrCode, error) {
	b, err := uc.GetBatch(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(b.Scope()) {
		return nil, fmt.Errorf("%w: solo el emisor puede listar los códigos", domain.ErrForbidden)
	}
	if b.Status != entity.BatchStatusCompleted {
		return nil, fmt.Errorf("%w: el lote está %s", domain.ErrConflict, b.Status)
	}
	page.DefaultPage(int(uc.cfg.MaxQuantity))
	return uc.qrCodes.ListByBatch(ctx, b.ID, page.Limit, page.Offset)
}
