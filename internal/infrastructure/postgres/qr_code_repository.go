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

var _ repository.QrCodeRepository = (*QrCodeRepo)(nil)

// QrCodeRepo implementación de QrCodeRepository sobre PostgreSQL (usable con pool o tx).
type QrCodeRepo struct {
	q Querier
}

// NewQrCodeRepository construye el adaptador de códigos. Pasar pool o tx (Querier).
func NewQrCodeRepository(q Querier) *QrCodeRepo {
	return &QrCodeRepo{q: q}
}

// BulkCreate inserta los códigos con COPY. Dentro de una tx, un fallo no deja filas parciales.
func (r *QrCodeRepo) BulkCreate(ctx context.Context, codes []*entity.QrCode) (int64, error) {
	n, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"qr_codes"},
		[]string{"id", "batch_id", "serial", "value", "created_at"},
		pgx.CopyFromSlice(len(codes), func(i int) ([]any, error) {
			c := codes[i]
			return []any{c.ID, c.BatchID, c.Serial, c.Value, c.CreatedAt}, nil
		}),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("copy qr codes: %w: %s", domain.ErrConflict, constraintName(err))
		}
		return 0, fmt.Errorf("copy qr codes: %w", err)
	}
	return n, nil
}

// GetByValueForUpdate obtiene el código por valor y bloquea la fila.
func (r *QrCodeRepo) GetByValueForUpdate(ctx context.Context, value string) (*entity.QrCode, error) {
	query := `
		SELECT id, batch_id, serial, value, certificate_id, created_at
		FROM qr_codes WHERE value = $1
		FOR UPDATE`
	c, err := scanQrCode(r.q.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get qr code for update: %w", err)
	}
	return c, nil
}

// LinkCertificate vincula el certificado solo si el código seguía libre.
func (r *QrCodeRepo) LinkCertificate(ctx context.Context, qrCodeID, certificateID string) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE qr_codes SET certificate_id = $2 WHERE id = $1 AND certificate_id IS NULL`, qrCodeID, certificateID)
	if err != nil {
		return false, fmt.Errorf("link certificate: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByBatch cuenta los códigos materializados del lote.
func (r *QrCodeRepo) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM qr_codes WHERE batch_id = $1`, batchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count qr codes: %w", err)
	}
	return n, nil
}

// ListByBatch lista los códigos del lote ordenados por serial.
func (r *QrCodeRepo) ListByBatch(ctx context.Context, batchID string, limit, offset int) ([]*entity.QrCode, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, batch_id, serial, value, certificate_id, created_at
		FROM qr_codes WHERE batch_id = $1
		ORDER BY serial
		LIMIT $2 OFFSET $3`, batchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	defer rows.Close()

	var list []*entity.QrCode
	for rows.Next() {
		c, err := scanQrCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan qr code: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanQrCode(row pgx.Row) (*entity.QrCode, error) {
	var c entity.QrCode
	if err := row.Scan(&c.ID, &c.BatchID, &c.Serial, &c.Value, &c.CertificateID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
