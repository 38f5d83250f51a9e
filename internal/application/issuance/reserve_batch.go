package issuance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

// Config límites de emisión.
type Config struct {
	MaxQuantity int64
	MaxPageSize int
}

// ReserveBatchUseCase reserva rangos de seriales y crea lotes PENDING.
// El contador del alcance y el INSERT del lote ocurren en la misma transacción;
// el lote se encola después del commit.
type ReserveBatchUseCase struct {
	txRunner ports.TxRunner
	batches  repository.BatchRepository
	qrCodes  repository.QrCodeRepository
	catalog  repository.CatalogRepository
	queue    ports.BatchQueue
	metrics  ports.Metrics
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewReserveBatchUseCase construye el caso de uso.
func NewReserveBatchUseCase(
	txRunner ports.TxRunner,
	batches repository.BatchRepository,
	qrCodes repository.QrCodeRepository,
	catalog repository.CatalogRepository,
	queue ports.BatchQueue,
	metrics ports.Metrics,
	cfg Config,
	log zerolog.Logger,
) *ReserveBatchUseCase {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &ReserveBatchUseCase{
		txRunner: txRunner,
		batches:  batches,
		qrCodes:  qrCodes,
		catalog:  catalog,
		queue:    queue,
		metrics:  metrics,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ReserveBatch valida la solicitud, reserva el rango y encola el lote. No espera la materialización.
func (uc *ReserveBatchUseCase) ReserveBatch(ctx context.Context, actor entity.Actor, in dto.ReserveBatchRequest) (*entity.Batch, error) {
	qty, err := ParseQuantity(in.QuantityText(), uc.cfg.MaxQuantity)
	if err != nil {
		return nil, err
	}
	scope := entity.Scope{
		StateCode:   strings.TrimSpace(in.StateCode),
		OEMCode:     strings.TrimSpace(in.OEMCode),
		ProductCode: strings.TrimSpace(in.ProductCode),
	}
	if !scope.Complete() {
		return nil, fmt.Errorf("%w: product_code, state_code y oem_code son obligatorios", domain.ErrValidation)
	}
	if !actor.CanManage(scope) {
		return nil, fmt.Errorf("%w: el actor no puede emitir para %s", domain.ErrForbidden, scope.Key())
	}
	if err := uc.checkCatalog(ctx, scope); err != nil {
		return nil, err
	}

	batch := &entity.Batch{
		ID:          uuid.New().String(),
		ProductCode: scope.ProductCode,
		StateCode:   scope.StateCode,
		OEMCode:     scope.OEMCode,
		Quantity:    qty,
		Status:      entity.BatchStatusPending,
		CreatedBy:   actor.UserID,
		CreatedAt:   uc.now(),
	}
	err = uc.txRunner.Run(ctx, func(repos ports.TxRepos) error {
		start, err := repos.Counters.Advance(ctx, scope, qty)
		if err != nil {
			return err
		}
		batch.SerialStart = start
		batch.SerialEnd = start + qty - 1
		return repos.Batches.Create(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.BatchReserved(batch.ProductCode)
	uc.log.Info().
		Str("batch_id", batch.ID).
		Str("scope", scope.Key()).
		Int64("serial_start", batch.SerialStart).
		Int64("serial_end", batch.SerialEnd).
		Msg("lote reservado")

	// Si el encolado falla el lote sigue PENDING y lo recoge el barrido de recuperación.
	if err := uc.queue.Enqueue(ctx, batch.ID); err != nil {
		uc.log.Warn().Err(err).Str("batch_id", batch.ID).Msg("no se pudo encolar el lote")
	}
	return batch, nil
}

func (uc *ReserveBatchUseCase) checkCatalog(ctx context.Context, scope entity.Scope) error {
	product, err := uc.catalog.GetProduct(ctx, scope.ProductCode)
	if err != nil {
		return err
	}
	if product == nil || !product.Active {
		return fmt.Errorf("%w: producto desconocido %q", domain.ErrValidation, scope.ProductCode)
	}
	state, err := uc.catalog.GetState(ctx, scope.StateCode)
	if err != nil {
		return err
	}
	if state == nil || !state.Active {
		return fmt.Errorf("%w: estado desconocido %q", domain.ErrValidation, scope.StateCode)
	}
	oem, err := uc.catalog.GetOEM(ctx, scope.OEMCode)
	if err != nil {
		return err
	}
	if oem == nil || !oem.Active {
		return fmt.Errorf("%w: OEM desconocido %q", domain.ErrValidation, scope.OEMCode)
	}
	ok, err := uc.catalog.IsOEMAuthorized(ctx, scope.OEMCode, scope.StateCode)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: OEM %s no autorizado en %s", domain.ErrValidation, scope.OEMCode, scope.StateCode)
	}
	return nil
}
