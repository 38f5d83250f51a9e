package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeClient struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (f *fakeClient) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("conexión rota")
	}
	f.msgs = append(f.msgs, data)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

var (
	admin   = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
	scopeKA = entity.Scope{StateCode: "KA", OEMCode: "TATA", ProductCode: "HSRP"}
	scopeMH = entity.Scope{StateCode: "MH", OEMCode: "TATA", ProductCode: "HSRP"}
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(8, zerolog.Nop())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHub_DifundeEventosATodosLosClientes(t *testing.T) {
	h := startHub(t)
	a, b := &fakeClient{}, &fakeClient{}
	require.True(t, h.subscribe(a, admin))
	require.True(t, h.subscribe(b, admin))

	h.Publish(ports.BatchEvent{BatchID: "b-1", Status: "COMPLETED", Scope: scopeKA})

	require.Eventually(t, func() bool { return a.received() == 1 && b.received() == 1 }, time.Second, 10*time.Millisecond)

	var ev ports.BatchEvent
	a.mu.Lock()
	require.NoError(t, json.Unmarshal(a.msgs[0], &ev))
	a.mu.Unlock()
	assert.Equal(t, "b-1", ev.BatchID)
	assert.Equal(t, "COMPLETED", ev.Status)
}

func TestHub_ClienteRotoSeDescarta(t *testing.T) {
	h := startHub(t)
	ok, broken := &fakeClient{}, &fakeClient{fail: true}
	require.True(t, h.subscribe(ok, admin))
	require.True(t, h.subscribe(broken, admin))

	h.Publish(ports.BatchEvent{BatchID: "b-2", Status: "FAILED", Scope: scopeKA})

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, broken.isClosed())
	assert.Equal(t, 1, ok.received())
}

// Caso: Publish nunca bloquea aunque nadie consuma la cola.
func TestHub_PublishNoBloqueaConColaLlena(t *testing.T) {
	h := NewHub(1, zerolog.Nop()) // sin Run
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish(ports.BatchEvent{BatchID: "b", Status: "COMPLETED"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish bloqueó con la cola llena")
	}
}

func TestHub_CancelarCierraClientes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(8, zerolog.Nop())
	finished := make(chan struct{})
	go func() { h.Run(ctx); close(finished) }()

	c := &fakeClient{}
	require.True(t, h.subscribe(c, admin))
	cancel()
	<-finished

	assert.True(t, c.isClosed())
	assert.False(t, h.subscribe(&fakeClient{}, admin), "tras Run no se aceptan registros")
}

// Caso: cada cliente recibe solo los lotes de su alcance.
func TestHub_FiltraEventosPorAlcanceDelActor(t *testing.T) {
	h := startHub(t)
	ka := &fakeClient{}
	mh := &fakeClient{}
	dealerKA := &fakeClient{}
	global := &fakeClient{}
	require.True(t, h.subscribe(ka, entity.Actor{UserID: "u-ka", Role: entity.RoleStateAdmin, StateCode: "KA"}))
	require.True(t, h.subscribe(mh, entity.Actor{UserID: "u-mh", Role: entity.RoleStateAdmin, StateCode: "MH"}))
	require.True(t, h.subscribe(dealerKA, entity.Actor{UserID: "u-d", Role: entity.RoleDealer, StateCode: "KA", OEMCode: "TATA", DealerID: "D-KA-001"}))
	require.True(t, h.subscribe(global, admin))

	h.Publish(ports.BatchEvent{BatchID: "b-mh", Status: "FAILED", Reason: "x", Scope: scopeMH})
	h.Publish(ports.BatchEvent{BatchID: "b-ka", Status: "COMPLETED", Scope: scopeKA})

	require.Eventually(t, func() bool { return global.received() == 2 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return ka.received() == 1 && mh.received() == 1 && dealerKA.received() == 1
	}, time.Second, 10*time.Millisecond)

	var ev ports.BatchEvent
	ka.mu.Lock()
	require.NoError(t, json.Unmarshal(ka.msgs[0], &ev))
	ka.mu.Unlock()
	assert.Equal(t, "b-ka", ev.BatchID)

	mh.mu.Lock()
	require.NoError(t, json.Unmarshal(mh.msgs[0], &ev))
	mh.mu.Unlock()
	assert.Equal(t, "b-mh", ev.BatchID)
}

// Caso: un evento sin alcance conocido solo llega a actores globales.
func TestHub_EventoSinAlcanceSoloParaAdmins(t *testing.T) {
	h := startHub(t)
	ka := &fakeClient{}
	global := &fakeClient{}
	require.True(t, h.subscribe(ka, entity.Actor{UserID: "u-ka", Role: entity.RoleStateAdmin, StateCode: "KA"}))
	require.True(t, h.subscribe(global, admin))

	h.Publish(ports.BatchEvent{BatchID: "b-x", Status: "FAILED"})

	require.Eventually(t, func() bool { return global.received() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, ka.received())
}
