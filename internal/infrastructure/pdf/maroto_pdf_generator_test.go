package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

func TestGenerateCertificatePDF(t *testing.T) {
	cert := &entity.Certificate{
		ID:            "5f3c2a9e-0c1b-4e57-8f3a-9b1d2c3e4f50",
		QrValue:       "Q1ABCDEFGHIJKLMNOPQRSTUVWXYZ234567",
		ProductCode:   "HSRP",
		StateCode:     "KA",
		OEMCode:       "TATA",
		DealerDetails: entity.DealerDetails{Name: "Motores KA", Phone: "+919800000001"},
		Vehicle:       entity.VehicleDetails{RegistrationNumber: "KA01AB1234", Make: "Tata", Model: "Nexon", RTOCode: "KA01"},
		Owner:         entity.OwnerDetails{Name: "Asha Rao"},
		GeneratedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	out, err := NewMarotoPDFGenerator("qrcert-api").GenerateCertificatePDF(context.Background(), cert, &entity.RTO{Code: "KA01", Name: "Bangalore Central"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")

	// Sin RTO en catálogo se imprime el código.
	out, err = NewMarotoPDFGenerator("qrcert-api").GenerateCertificatePDF(context.Background(), cert, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestNonEmpty(t *testing.T) {
	assert.Equal(t, "x", nonEmpty("x", "-"))
	assert.Equal(t, "-", nonEmpty("", "-"))
}
