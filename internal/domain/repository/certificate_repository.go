package repository

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// CertificateRepository define el puerto de persistencia para Certificate (DIP).
// Create devuelve domain.ErrDuplicateRedemption si ya existe un certificado para el QrCode.
type CertificateRepository interface {
	Create(ctx context.Context, cert *entity.Certificate) error
	GetByID(ctx context.Context, id string) (*entity.Certificate, error)
}
