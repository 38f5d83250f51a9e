package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.CertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo implementación en memoria de CertificateRepository.
type CertificateRepo struct {
	s  *Store
	tx *state
}

// Create guarda el certificado; un segundo certificado para el mismo QrCode es ErrDuplicateRedemption.
func (r *CertificateRepo) Create(_ context.Context, cert *entity.Certificate) error {
	return r.s.view(r.tx, func(st *state) error {
		if _, ok := st.certByQr[cert.QrCodeID]; ok {
			return fmt.Errorf("create certificate: %w", domain.ErrDuplicateRedemption)
		}
		if _, ok := st.certs[cert.ID]; ok {
			return fmt.Errorf("create certificate: %w: id duplicado", domain.ErrConflict)
		}
		cp := *cert
		st.certs[cert.ID] = &cp
		st.certByQr[cert.QrCodeID] = cert.ID
		return nil
	})
}

// GetByID obtiene un certificado por ID.
func (r *CertificateRepo) GetByID(_ context.Context, id string) (*entity.Certificate, error) {
	var out *entity.Certificate
	err := r.s.view(r.tx, func(st *state) error {
		if c, ok := st.certs[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

// Count devuelve el número de certificados y de códigos vinculados (tests de correspondencia 1:1).
func (s *Store) Count() (certificates, linkedCodes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.st.qrByID {
		if q.Redeemed() {
			linkedCodes++
		}
	}
	return len(s.st.certs), linkedCodes
}
