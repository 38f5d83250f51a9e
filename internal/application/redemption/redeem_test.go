package redemption_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/application/processing"
	"github.com/jhoicas/qrcert-api/internal/application/redemption"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/qrvalue"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	dealerKA = entity.Actor{UserID: "u-d1", Role: entity.RoleDealer, StateCode: "KA", OEMCode: "TATA", DealerID: "D1"}
	admin    = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
)

type fakePDF struct{}

func (fakePDF) GenerateCertificatePDF(_ context.Context, c *entity.Certificate, _ *entity.RTO) ([]byte, error) {
	return []byte("%PDF-" + c.ID), nil
}

type fixture struct {
	store *memory.Store
	uc    *redemption.RedeemUseCase
	codes []*entity.QrCode
}

func newFixture(t *testing.T, qty int64) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	cat := store.Catalog()
	cat.AddDealer(entity.Dealer{ID: "D1", Name: "Motores KA", Phone: "+919800000001", StateCode: "KA", OEMCodes: []string{"TATA"}, Active: true})
	cat.AddDealer(entity.Dealer{ID: "D2", Name: "Motores MH", Phone: "+919800000002", StateCode: "MH", OEMCodes: []string{"TATA"}, Active: true})
	cat.AddDealer(entity.Dealer{ID: "D3", Name: "Cerrado", StateCode: "KA", OEMCodes: []string{"TATA"}, Active: false})
	cat.AddRTO(entity.RTO{Code: "KA01", Name: "Bangalore Central", StateCode: "KA"})

	signer, err := qrvalue.NewSigner("redeem-test-secret-0123456789")
	require.NoError(t, err)

	b := &entity.Batch{
		ID: "0d7e6a53-8f0c-4f2a-a1c9-56a1f0b2c3d4", ProductCode: "HSRP", StateCode: "KA", OEMCode: "TATA",
		Quantity: qty, SerialStart: 1, SerialEnd: qty, Status: entity.BatchStatusPending,
		CreatedBy: "u-admin", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Batches().Create(ctx, b))
	p := processing.NewBatchProcessor(store, store.Batches(), signer, ports.NopDeadLetters{}, ports.NopPublisher{}, ports.NopMetrics{}, zerolog.Nop())
	require.NoError(t, p.Process(ctx, b.ID))

	codes, err := store.QrCodes().ListByBatch(ctx, b.ID, int(qty), 0)
	require.NoError(t, err)

	uc := redemption.NewRedeemUseCase(store, store.Certificates(), cat, signer, fakePDF{}, ports.NopMetrics{}, zerolog.Nop())
	return &fixture{store: store, uc: uc, codes: codes}
}

func redeemRequest(value string) dto.RedeemRequest {
	return dto.RedeemRequest{
		QrValue: value,
		Vehicle: dto.VehicleInput{
			RegistrationNumber: "ka01ab1234",
			ChassisNumber:      "MA3EWDE1S00123456",
			EngineNumber:       "K12MN1234567",
			Make:               "Tata",
			Model:              "Nexon",
			RTOCode:            "KA01",
		},
		Owner:  dto.OwnerInput{Name: "Asha Rao", Phone: "+919811112222", Address: "MG Road 1, Bangalore"},
		Photos: dto.PhotosInput{Front: "s3://fotos/f.jpg", Rear: "s3://fotos/r.jpg", Plate: "s3://fotos/p.jpg"},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestRedeem_Exitoso(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	name := "Motores KA Sucursal 2"
	in := redeemRequest(f.codes[0].Value)
	in.DealerOverrides = &dto.DealerOverrides{Name: &name}

	cert, err := f.uc.Redeem(ctx, dealerKA, in)
	require.NoError(t, err)

	assert.Equal(t, f.codes[0].ID, cert.QrCodeID)
	assert.Equal(t, "D1", cert.DealerID)
	assert.Equal(t, "Motores KA Sucursal 2", cert.DealerDetails.Name)
	assert.Equal(t, "+919800000001", cert.DealerDetails.Phone)
	assert.Equal(t, "KA01AB1234", cert.Vehicle.RegistrationNumber)
	assert.Equal(t, "HSRP", cert.ProductCode)

	got, err := f.uc.GetCertificate(ctx, dealerKA, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, got.ID)

	pdf, err := f.uc.RenderPDF(ctx, admin, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-"+cert.ID, string(pdf))
}

// Caso 1: el segundo intento sobre el mismo código es duplicado.
func TestRedeem_Duplicado(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.uc.Redeem(ctx, dealerKA, redeemRequest(f.codes[0].Value))
	require.NoError(t, err)
	_, err = f.uc.Redeem(ctx, dealerKA, redeemRequest(f.codes[0].Value))
	assert.ErrorIs(t, err, domain.ErrDuplicateRedemption)
}

// Caso 2: N redenciones concurrentes del mismo código: exactamente una gana.
func TestRedeem_ConcurrenteUnaSolaGana(t *testing.T) {
	f := newFixture(t, 1)
	const n = 32

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Redeem(context.Background(), dealerKA, redeemRequest(f.codes[0].Value))
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, domain.ErrDuplicateRedemption):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), dup.Load())
	certs, linked := f.store.Count()
	assert.Equal(t, 1, certs)
	assert.Equal(t, 1, linked)
}

// Caso 3: códigos distintos en paralelo: certificados y códigos vinculados quedan 1:1.
func TestRedeem_CorrespondenciaUnoAUno(t *testing.T) {
	f := newFixture(t, 20)
	var wg sync.WaitGroup
	for _, c := range f.codes {
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(v string) {
				defer wg.Done()
				_, _ = f.uc.Redeem(context.Background(), dealerKA, redeemRequest(v))
			}(c.Value)
		}
	}
	wg.Wait()

	certs, linked := f.store.Count()
	assert.Equal(t, 20, certs)
	assert.Equal(t, certs, linked)
}

// Caso 4: valores desconocidos, alterados o con formato inválido son NotFound o Validation.
func TestRedeem_CodigoInvalido(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	other, err := qrvalue.NewSigner("otro-secreto-distinto-0123456789")
	require.NoError(t, err)
	d, err := other.ForBatch("0d7e6a53-8f0c-4f2a-a1c9-56a1f0b2c3d4")
	require.NoError(t, err)
	forged, err := d.Value(1)
	require.NoError(t, err)

	_, err = f.uc.Redeem(ctx, dealerKA, redeemRequest(forged))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Redeem(ctx, dealerKA, redeemRequest("NO-ES-UN-QR"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Redeem(ctx, dealerKA, redeemRequest(""))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Caso 5: datos del vehículo o del propietario inválidos no consumen el código.
func TestRedeem_PayloadInvalidoNoConsume(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	in := redeemRequest(f.codes[0].Value)
	in.Owner.Phone = "llámame"
	_, err := f.uc.Redeem(ctx, dealerKA, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = redeemRequest(f.codes[0].Value)
	in.Vehicle.RTOCode = "ZZ99"
	_, err = f.uc.Redeem(ctx, dealerKA, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Redeem(ctx, dealerKA, redeemRequest(f.codes[0].Value))
	require.NoError(t, err)
}

// Caso 6: alcance del dealer y roles.
func TestRedeem_AlcanceDelDealer(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	value := f.codes[0].Value

	dealerMH := entity.Actor{UserID: "u-d2", Role: entity.RoleDealer, StateCode: "MH", OEMCode: "TATA", DealerID: "D2"}
	_, err := f.uc.Redeem(ctx, dealerMH, redeemRequest(value))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	in := redeemRequest(value)
	in.DealerID = "D2"
	_, err = f.uc.Redeem(ctx, dealerKA, in)
	assert.ErrorIs(t, err, domain.ErrForbidden, "un dealer no redime a nombre de otro")

	in.DealerID = "D3"
	_, err = f.uc.Redeem(ctx, admin, in)
	assert.ErrorIs(t, err, domain.ErrForbidden, "dealer inactivo")

	in.DealerID = ""
	_, err = f.uc.Redeem(ctx, admin, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stateAdmin := entity.Actor{UserID: "u-ka", Role: entity.RoleStateAdmin, StateCode: "KA"}
	_, err = f.uc.Redeem(ctx, stateAdmin, redeemRequest(value))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	in.DealerID = "D1"
	cert, err := f.uc.Redeem(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "D1", cert.DealerID)
	assert.Equal(t, "u-admin", cert.GeneratedBy)

	_, err = f.uc.GetCertificate(ctx, dealerMH, cert.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
