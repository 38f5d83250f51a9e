package repository

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// QrCodeRepository define el puerto de persistencia para QrCode (DIP).
type QrCodeRepository interface {
	BulkCreate(ctx context.Context, codes []*entity.QrCode) (int64, error)
	// GetByValueForUpdate bloquea la fila del código; (nil, nil) si no existe.
	GetByValueForUpdate(ctx context.Context, value string) (*entity.QrCode, error)
	// LinkCertificate vincula el certificado solo si el código no tenía uno; false si ya estaba vinculado.
	LinkCertificate(ctx context.Context, qrCodeID, certificateID string) (bool, error)
	CountByBatch(ctx context.Context, batchID string) (int64, error)
	ListByBatch(ctx context.Context, batchID string, limit, offset int) ([]*entity.QrCode, error)
}
