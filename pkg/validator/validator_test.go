package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/pkg/validator"
)

type sample struct {
	Plate string `validate:"required,registration"`
	Phone string `validate:"required,phone"`
	Name  string `validate:"required,max=5"`
}

func TestValidateStruct_Valido(t *testing.T) {
	assert.Nil(t, validator.ValidateStruct(sample{Plate: "KA01AB1234", Phone: "+919876543210", Name: "Ana"}))
}

func TestValidateStruct_CamposInvalidos(t *testing.T) {
	errs := validator.ValidateStruct(sample{Plate: "ka 01", Phone: "12", Name: "demasiado"})
	require.Len(t, errs, 3)
	assert.Equal(t, "sample.Plate", errs[0].Field)
	assert.Equal(t, "registration", errs[0].Tag)
	assert.Equal(t, "max", errs[2].Tag)
	assert.Contains(t, validator.Describe(errs), "sample.Name (max=5)")
}
