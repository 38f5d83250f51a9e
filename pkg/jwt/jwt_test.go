package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/qrcert-api/pkg/jwt"
)

func TestGenerateParse_IdentidadCompleta(t *testing.T) {
	id := pkgjwt.Identity{UserID: "u-1", Role: "DEALER", StateCode: "KA", OEMCode: "OEM1", DealerID: "d-9"}
	tok, err := pkgjwt.Generate("secret", "qrcert-test", id, 5)
	require.NoError(t, err)

	got, err := pkgjwt.Parse("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "qrcert-test", pkgjwt.Identity{UserID: "u-1", Role: "ADMIN"}, 5)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "qrcert-test", pkgjwt.Identity{UserID: "u-1", Role: "ADMIN"}, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("secret", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "x", pkgjwt.Identity{}, 5)
	assert.Error(t, err)
}
