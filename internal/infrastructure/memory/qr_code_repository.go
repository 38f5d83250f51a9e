package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.QrCodeRepository = (*QrCodeRepo)(nil)

// QrCodeRepo implementación en memoria de QrCodeRepository.
type QrCodeRepo struct {
	s  *Store
	tx *state
}

func serialKey(batchID string, serial int64) string {
	return fmt.Sprintf("%s:%d", batchID, serial)
}

// BulkCreate inserta todos los códigos o ninguno; valor y (lote, serial) son únicos.
func (r *QrCodeRepo) BulkCreate(_ context.Context, codes []*entity.QrCode) (int64, error) {
	err := r.s.view(r.tx, func(st *state) error {
		values := make(map[string]struct{}, len(codes))
		serials := make(map[string]struct{}, len(codes))
		for _, c := range codes {
			sk := serialKey(c.BatchID, c.Serial)
			if _, ok := st.qrByValue[c.Value]; ok {
				return fmt.Errorf("bulk create qr codes: %w: valor duplicado", domain.ErrConflict)
			}
			if _, ok := values[c.Value]; ok {
				return fmt.Errorf("bulk create qr codes: %w: valor duplicado", domain.ErrConflict)
			}
			if _, ok := st.qrBySerial[sk]; ok {
				return fmt.Errorf("bulk create qr codes: %w: serial %d duplicado", domain.ErrConflict, c.Serial)
			}
			if _, ok := serials[sk]; ok {
				return fmt.Errorf("bulk create qr codes: %w: serial %d duplicado", domain.ErrConflict, c.Serial)
			}
			values[c.Value] = struct{}{}
			serials[sk] = struct{}{}
		}
		for _, c := range codes {
			cp := *c
			st.qrByID[c.ID] = &cp
			st.qrByValue[c.Value] = c.ID
			st.qrBySerial[serialKey(c.BatchID, c.Serial)] = c.ID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(codes)), nil
}

// GetByValueForUpdate obtiene el código por su valor; (nil, nil) si no existe.
func (r *QrCodeRepo) GetByValueForUpdate(_ context.Context, value string) (*entity.QrCode, error) {
	var out *entity.QrCode
	err := r.s.view(r.tx, func(st *state) error {
		id, ok := st.qrByValue[value]
		if !ok {
			return nil
		}
		cp := *st.qrByID[id]
		out = &cp
		return nil
	})
	return out, err
}

// LinkCertificate vincula el certificado solo si el código no tenía uno.
func (r *QrCodeRepo) LinkCertificate(_ context.Context, qrCodeID, certificateID string) (bool, error) {
	var linked bool
	err := r.s.view(r.tx, func(st *state) error {
		q, ok := st.qrByID[qrCodeID]
		if !ok {
			return fmt.Errorf("link certificate: %w", domain.ErrNotFound)
		}
		if q.Redeemed() {
			return nil
		}
		cp := *q
		id := certificateID
		cp.CertificateID = &id
		st.qrByID[qrCodeID] = &cp
		linked = true
		return nil
	})
	return linked, err
}

// CountByBatch cuenta los códigos materializados de un lote.
func (r *QrCodeRepo) CountByBatch(_ context.Context, batchID string) (int64, error) {
	var n int64
	err := r.s.view(r.tx, func(st *state) error {
		for _, q := range st.qrByID {
			if q.BatchID == batchID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ListByBatch lista los códigos de un lote ordenados por serial.
func (r *QrCodeRepo) ListByBatch(_ context.Context, batchID string, limit, offset int) ([]*entity.QrCode, error) {
	var list []*entity.QrCode
	err := r.s.view(r.tx, func(st *state) error {
		for _, q := range st.qrByID {
			if q.BatchID == batchID {
				cp := *q
				list = append(list, &cp)
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Serial < list[j].Serial })
	return page(list, limit, offset), err
}
