package qrvalue_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/domain"
	"github.com/jhoicas/qrcert-api/internal/domain/qrvalue"
)

const testSecret = "test-master-secret-0123456789"

func newSigner(t *testing.T) *qrvalue.Signer {
	t.Helper()
	s, err := qrvalue.NewSigner(testSecret)
	require.NoError(t, err)
	return s
}

// Caso 1: un valor generado se verifica y devuelve el mismo lote y serial.
func TestValue_ParseDevuelveLoteYSerial(t *testing.T) {
	s := newSigner(t)
	batchID := uuid.New().String()
	d, err := s.ForBatch(batchID)
	require.NoError(t, err)

	v, err := d.Value(42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v, "Q1"))

	got, err := s.Parse(v)
	require.NoError(t, err)
	assert.Equal(t, batchID, got.BatchID)
	assert.Equal(t, int64(42), got.Serial)
}

// Caso 2: el mismo serial genera valores distintos (componente aleatorio).
func TestValue_NonceHaceValoresUnicos(t *testing.T) {
	s := newSigner(t)
	d, err := s.ForBatch(uuid.New().String())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		v, err := d.Value(1)
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "valor repetido en la iteración %d", i)
		seen[v] = struct{}{}
	}
}

// Caso 3: un valor alterado o firmado con otro secreto se rechaza como NotFound.
func TestValue_ValorAlteradoEsNotFound(t *testing.T) {
	s := newSigner(t)
	d, err := s.ForBatch(uuid.New().String())
	require.NoError(t, err)
	v, err := d.Value(7)
	require.NoError(t, err)

	b := []byte(v)
	if b[10] == 'A' {
		b[10] = 'B'
	} else {
		b[10] = 'A'
	}
	_, err = s.Parse(string(b))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other, err := qrvalue.NewSigner("otro-secreto-distinto-123456")
	require.NoError(t, err)
	_, err = other.Parse(v)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValue_FormatosInvalidos(t *testing.T) {
	s := newSigner(t)
	for _, v := range []string{"", "Q1", "XX123", "Q1!!!!", "Q1" + strings.Repeat("A", 10)} {
		_, err := s.Parse(v)
		assert.ErrorIs(t, err, domain.ErrNotFound, "valor %q", v)
	}
}

func TestNewSigner_SecretoCorto(t *testing.T) {
	_, err := qrvalue.NewSigner("corto")
	assert.Error(t, err)
}

func TestForBatch_IDInvalido(t *testing.T) {
	s := newSigner(t)
	_, err := s.ForBatch("no-es-uuid")
	assert.Error(t, err)

	d, err := s.ForBatch(uuid.New().String())
	require.NoError(t, err)
	_, err = d.Value(0)
	assert.Error(t, err)
}
