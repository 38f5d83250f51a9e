package redemption

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// CertificatePDFGenerator genera la representación imprimible del certificado.
type CertificatePDFGenerator interface {
	GenerateCertificatePDF(ctx context.Context, cert *entity.Certificate, rto *entity.RTO) ([]byte, error)
}
