package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.CertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo implementación de CertificateRepository sobre PostgreSQL (usable con pool o tx).
// Los datos del dealer, vehículo, propietario y fotos se guardan como JSONB.
type CertificateRepo struct {
	q Querier
}

// NewCertificateRepository construye el adaptador de certificados. Pasar pool o tx (Querier).
func NewCertificateRepository(q Querier) *CertificateRepo {
	return &CertificateRepo{q: q}
}

// Create inserta el certificado. El UNIQUE sobre qr_code_id impide un segundo certificado para el mismo código.
func (r *CertificateRepo) Create(ctx context.Context, c *entity.Certificate) error {
	query := `
		INSERT INTO certificates (id, qr_code_id, qr_value, product_code, state_code, oem_code, dealer_id,
			dealer_details, vehicle, owner, photos, generated_by, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.QrCodeID, c.QrValue, c.ProductCode, c.StateCode, c.OEMCode, c.DealerID,
		c.DealerDetails, c.Vehicle, c.Owner, c.Photos, c.GeneratedBy, c.GeneratedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == "certificates_qr_code_key" {
			return fmt.Errorf("create certificate: %w", domain.ErrDuplicateRedemption)
		}
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// GetByID obtiene un certificado por ID; (nil, nil) si no existe.
func (r *CertificateRepo) GetByID(ctx context.Context, id string) (*entity.Certificate, error) {
	query := `
		SELECT id, qr_code_id, qr_value, product_code, state_code, oem_code, dealer_id,
			dealer_details, vehicle, owner, photos, generated_by, generated_at
		FROM certificates WHERE id = $1`
	var c entity.Certificate
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.QrCodeID, &c.QrValue, &c.ProductCode, &c.StateCode, &c.OEMCode, &c.DealerID,
		&c.DealerDetails, &c.Vehicle, &c.Owner, &c.Photos, &c.GeneratedBy, &c.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return &c, nil
}
