package redemption

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/qrvalue"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
	"github.com/jhoicas/qrcert-api/pkg/validator"
)

// RedeemUseCase convierte un código QR sin usar en exactamente un certificado.
// Bloqueo de la fila del código, INSERT del certificado y vínculo ocurren en una transacción.
type RedeemUseCase struct {
	txRunner ports.TxRunner
	certs    repository.CertificateRepository
	catalog  repository.CatalogRepository
	signer   *qrvalue.Signer
	pdf      CertificatePDFGenerator
	metrics  ports.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewRedeemUseCase construye el caso de uso.
func NewRedeemUseCase(
	txRunner ports.TxRunner,
	certs repository.CertificateRepository,
	catalog repository.CatalogRepository,
	signer *qrvalue.Signer,
	pdf CertificatePDFGenerator,
	metrics ports.Metrics,
	log zerolog.Logger,
) *RedeemUseCase {
	return &RedeemUseCase{
		txRunner: txRunner,
		certs:    certs,
		catalog:  catalog,
		signer:   signer,
		pdf:      pdf,
		metrics:  metrics,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Redeem valida el payload fuera de la transacción y luego, de forma atómica,
// verifica el código, crea el certificado y vincula el código.
func (uc *RedeemUseCase) Redeem(ctx context.Context, actor entity.Actor, in dto.RedeemRequest) (*entity.Certificate, error) {
	cert, err := uc.redeem(ctx, actor, in)
	uc.metrics.Redemption(resultOf(err))
	return cert, err
}

func (uc *RedeemUseCase) redeem(ctx context.Context, actor entity.Actor, in dto.RedeemRequest) (*entity.Certificate, error) {
	in.QrValue = strings.ToUpper(strings.TrimSpace(in.QrValue))
	in.Vehicle.RegistrationNumber = strings.ToUpper(strings.TrimSpace(in.Vehicle.RegistrationNumber))
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, validator.Describe(errs))
	}

	dealerID, err := dealerFor(actor, in.DealerID)
	if err != nil {
		return nil, err
	}
	dealer, err := uc.catalog.GetDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, fmt.Errorf("%w: dealer desconocido %q", domain.ErrValidation, dealerID)
	}
	if !dealer.Active {
		return nil, fmt.Errorf("%w: dealer %s inactivo", domain.ErrForbidden, dealerID)
	}
	rto, err := uc.catalog.GetRTO(ctx, in.Vehicle.RTOCode)
	if err != nil {
		return nil, err
	}
	if rto == nil {
		return nil, fmt.Errorf("%w: RTO desconocido %q", domain.ErrValidation, in.Vehicle.RTOCode)
	}

	decoded, err := uc.signer.Parse(in.QrValue)
	if err != nil {
		return nil, err
	}

	var cert *entity.Certificate
	err = uc.txRunner.Run(ctx, func(repos ports.TxRepos) error {
		qr, err := repos.QrCodes.GetByValueForUpdate(ctx, in.QrValue)
		if err != nil {
			return err
		}
		if qr == nil || qr.BatchID != decoded.BatchID || qr.Serial != decoded.Serial {
			return fmt.Errorf("%w: código QR desconocido", domain.ErrNotFound)
		}
		batch, err := repos.Batches.GetByID(ctx, qr.BatchID)
		if err != nil {
			return err
		}
		if batch == nil || batch.Status != entity.BatchStatusCompleted {
			return fmt.Errorf("%w: código QR desconocido", domain.ErrNotFound)
		}
		if dealer.StateCode != batch.StateCode || !dealer.ServesOEM(batch.OEMCode) {
			return fmt.Errorf("%w: el dealer no opera para %s", domain.ErrForbidden, batch.Scope().Key())
		}
		if qr.Redeemed() {
			return fmt.Errorf("%w: certificado %s", domain.ErrDuplicateRedemption, *qr.CertificateID)
		}

		c := &entity.Certificate{
			ID:            uuid.New().String(),
			QrCodeID:      qr.ID,
			QrValue:       qr.Value,
			ProductCode:   batch.ProductCode,
			StateCode:     batch.StateCode,
			OEMCode:       batch.OEMCode,
			DealerID:      dealer.ID,
			DealerDetails: in.DealerOverrides.Apply(dealer.Details()),
			Vehicle: entity.VehicleDetails{
				RegistrationNumber: in.Vehicle.RegistrationNumber,
				ChassisNumber:      in.Vehicle.ChassisNumber,
				EngineNumber:       in.Vehicle.EngineNumber,
				Make:               in.Vehicle.Make,
				Model:              in.Vehicle.Model,
				RTOCode:            rto.Code,
			},
			Owner:       entity.OwnerDetails{Name: in.Owner.Name, Phone: in.Owner.Phone, Address: in.Owner.Address},
			Photos:      entity.CertificatePhotos{Front: in.Photos.Front, Rear: in.Photos.Rear, Plate: in.Photos.Plate},
			GeneratedBy: actor.UserID,
			GeneratedAt: uc.now(),
		}
		if err := repos.Certificates.Create(ctx, c); err != nil {
			return err
		}
		linked, err := repos.QrCodes.LinkCertificate(ctx, qr.ID, c.ID)
		if err != nil {
			return err
		}
		if !linked {
			return fmt.Errorf("%w: código vinculado concurrentemente", domain.ErrDuplicateRedemption)
		}
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("certificate_id", cert.ID).
		Str("qr_code_id", cert.QrCodeID).
		Str("dealer_id", cert.DealerID).
		Msg("certificado emitido")
	return cert, nil
}

// dealerFor resuelve a nombre de qué dealer se redime.
func dealerFor(actor entity.Actor, requested string) (string, error) {
	switch {
	case actor.Role == entity.RoleDealer:
		if actor.DealerID == "" {
			return "", fmt.Errorf("%w: token de dealer sin dealer_id", domain.ErrForbidden)
		}
		if requested != "" && requested != actor.DealerID {
			return "", fmt.Errorf("%w: un dealer solo redime a su nombre", domain.ErrForbidden)
		}
		return actor.DealerID, nil
	case actor.IsAdmin():
		if requested == "" {
			return "", fmt.Errorf("%w: dealer_id es obligatorio", domain.ErrValidation)
		}
		return requested, nil
	}
	return "", fmt.Errorf("%w: rol %q no puede redimir", domain.ErrForbidden, actor.Role)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ports.RedemptionOK
	case errors.Is(err, domain.ErrDuplicateRedemption):
		return ports.RedemptionDuplicate
	case errors.Is(err, domain.ErrNotFound):
		return ports.RedemptionNotFound
	case errors.Is(err, domain.ErrValidation):
		return ports.RedemptionInvalid
	case errors.Is(err, domain.ErrForbidden):
		return ports.RedemptionForbidden
	}
	return ports.RedemptionError
}

// GetCertificate devuelve un certificado visible para el actor.
func (uc *RedeemUseCase) GetCertificate(ctx context.Context, actor entity.Actor, id string) (*entity.Certificate, error) {
	c, err := uc.certs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !canSee(actor, c) {
		return nil, fmt.Errorf("%w: certificado %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// RenderPDF genera el PDF del certificado.
func (uc *RedeemUseCase) RenderPDF(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	c, err := uc.GetCertificate(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	rto, err := uc.catalog.GetRTO(ctx, c.Vehicle.RTOCode)
	if err != nil {
		return nil, err
	}
	return uc.pdf.GenerateCertificatePDF(ctx, c, rto)
}

func canSee(actor entity.Actor, c *entity.Certificate) bool {
	if actor.Role == entity.RoleDealer {
		return actor.DealerID != "" && actor.DealerID == c.DealerID
	}
	return actor.CanManage(entity.Scope{StateCode: c.StateCode, OEMCode: c.OEMCode, ProductCode: c.ProductCode})
}
