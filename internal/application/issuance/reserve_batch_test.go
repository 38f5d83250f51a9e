package issuance_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/application/dto"
	"github.com/jhoicas/qrcert-api/internal/application/issuance"
	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
	"github.com/jhoicas/qrcert-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var admin = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *recordingQueue) Enqueue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func newUseCase(t *testing.T) (*issuance.ReserveBatchUseCase, *memory.Store, *recordingQueue) {
	t.Helper()
	store := memory.New()
	cat := store.Catalog()
	cat.AddProduct(entity.Product{Code: "HSRP", Name: "Placa HSRP", Active: true})
	cat.AddProduct(entity.Product{Code: "OLD", Name: "Descontinuado", Active: false})
	cat.AddState(entity.State{Code: "KA", Name: "Karnataka", Active: true})
	cat.AddState(entity.State{Code: "MH", Name: "Maharashtra", Active: true})
	cat.AddOEM(entity.OEM{Code: "TATA", Name: "Tata", Active: true})
	cat.Authorize("TATA", "KA")

	q := &recordingQueue{}
	uc := issuance.NewReserveBatchUseCase(store, store.Batches(), store.QrCodes(), cat, q,
		ports.NopMetrics{}, issuance.Config{MaxQuantity: 1000}, zerolog.Nop())
	return uc, store, q
}

func request(qty string) dto.ReserveBatchRequest {
	return dto.ReserveBatchRequest{ProductCode: "HSRP", StateCode: "KA", OEMCode: "TATA", Quantity: json.RawMessage(qty)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestReserveBatch_RangosContiguos(t *testing.T) {
	uc, _, q := newUseCase(t)
	ctx := context.Background()

	first, err := uc.ReserveBatch(ctx, admin, request(`10`))
	require.NoError(t, err)
	second, err := uc.ReserveBatch(ctx, admin, request(`"5"`))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.SerialStart)
	assert.Equal(t, int64(10), first.SerialEnd)
	assert.Equal(t, int64(11), second.SerialStart)
	assert.Equal(t, int64(15), second.SerialEnd)
	assert.Equal(t, entity.BatchStatusPending, first.Status)
	assert.Equal(t, []string{first.ID, second.ID}, q.ids)
}

// Caso 1: K reservas concurrentes de Q producen K·Q seriales distintos sin huecos.
func TestReserveBatch_ConcurrentesDisjuntas(t *testing.T) {
	uc, store, _ := newUseCase(t)
	const k, qty = 16, 25

	var wg sync.WaitGroup
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.ReserveBatch(context.Background(), admin, request(`25`))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[int64]bool{}
	batches, err := store.Batches().List(context.Background(), repository.BatchFilter{})
	require.NoError(t, err)
	require.Len(t, batches, k)
	for _, b := range batches {
		for s := b.SerialStart; s <= b.SerialEnd; s++ {
			require.False(t, seen[s], "serial %d reservado dos veces", s)
			seen[s] = true
		}
	}
	assert.Len(t, seen, k*qty)
	for s := int64(1); s <= k*qty; s++ {
		assert.True(t, seen[s], "falta el serial %d", s)
	}
}

// Caso 2: límites de cantidad.
func TestReserveBatch_Cantidad(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.ReserveBatch(ctx, admin, request(`1000`))
	require.NoError(t, err)

	for _, raw := range []string{`1001`, `-5`, `0`, `1000000`, `"TEN"`, `10.5`, `""`, ``} {
		_, err := uc.ReserveBatch(ctx, admin, request(raw))
		assert.ErrorIs(t, err, domain.ErrValidation, "quantity=%s", raw)
	}
}

// Caso 3: alcance incompleto, catálogo inválido o actor sin permisos.
func TestReserveBatch_Rechazos(t *testing.T) {
	uc, store, q := newUseCase(t)
	ctx := context.Background()

	missing := request(`10`)
	missing.OEMCode = ""
	_, err := uc.ReserveBatch(ctx, admin, missing)
	assert.ErrorIs(t, err, domain.ErrValidation)

	inactive := request(`10`)
	inactive.ProductCode = "OLD"
	_, err = uc.ReserveBatch(ctx, admin, inactive)
	assert.ErrorIs(t, err, domain.ErrValidation)

	unauthorized := request(`10`)
	unauthorized.StateCode = "MH"
	_, err = uc.ReserveBatch(ctx, admin, unauthorized)
	assert.ErrorIs(t, err, domain.ErrValidation)

	otherState := entity.Actor{UserID: "u-mh", Role: entity.RoleStateAdmin, StateCode: "MH"}
	_, err = uc.ReserveBatch(ctx, otherState, request(`10`))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	dealer := entity.Actor{UserID: "u-d", Role: entity.RoleDealer, DealerID: "D1"}
	_, err = uc.ReserveBatch(ctx, dealer, request(`10`))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	batches, err := store.Batches().List(ctx, repository.BatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.Empty(t, q.ids)
}

// Caso 4: si la cola falla, el lote queda PENDING y la reserva no se revierte.
func TestReserveBatch_ColaCaida(t *testing.T) {
	uc, store, q := newUseCase(t)
	q.err = assert.AnError

	b, err := uc.ReserveBatch(context.Background(), admin, request(`3`))
	require.NoError(t, err)

	got, err := store.Batches().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.BatchStatusPending, got.Status)
}

func TestGetBatch_FueraDeAlcanceEsNotFound(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	b, err := uc.ReserveBatch(ctx, admin, request(`3`))
	require.NoError(t, err)

	own := entity.Actor{UserID: "u-ka", Role: entity.RoleStateAdmin, StateCode: "KA"}
	got, err := uc.GetBatch(ctx, own, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	other := entity.Actor{UserID: "u-mh", Role: entity.RoleStateAdmin, StateCode: "MH"}
	_, err = uc.GetBatch(ctx, other, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBatches_FiltraPorActor(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.ReserveBatch(ctx, admin, request(`3`))
	require.NoError(t, err)

	other := entity.Actor{UserID: "u-mh", Role: entity.RoleStateAdmin, StateCode: "MH"}
	list, err := uc.ListBatches(ctx, other, dto.BatchQuery{StateCode: "KA"})
	require.NoError(t, err)
	assert.Empty(t, list, "el estado se fuerza al del actor")

	list, err = uc.ListBatches(ctx, admin, dto.BatchQuery{Status: entity.BatchStatusPending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.ListBatches(ctx, admin, dto.BatchQuery{Status: "RUNNING"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListCodes_LotePendienteEsConflicto(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()
	b, err := uc.ReserveBatch(ctx, admin, request(`3`))
	require.NoError(t, err)

	_, err = uc.ListCodes(ctx, admin, b.ID, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
