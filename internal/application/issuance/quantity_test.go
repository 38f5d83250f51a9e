package issuance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/domain"
)

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("1000", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q)

	q, err = ParseQuantity(" 1 ", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), q)

	for _, raw := range []string{"", "1001", "0", "-5", "TEN", "1e3", "99999999999999999999"} {
		_, err := ParseQuantity(raw, 1000)
		assert.ErrorIs(t, err, domain.ErrValidation, raw)
	}
}
