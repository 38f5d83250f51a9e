// Package validator: validación declarativa de estructuras (go-playground/validator).
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError campo que no pasó la validación.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	registration = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)
	phone        = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

func init() {
	// Placa normalizada: mayúsculas y dígitos, sin espacios ni guiones.
	_ = validate.RegisterValidation("registration", func(fl validator.FieldLevel) bool {
		return registration.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phone.MatchString(fl.Field().String())
	})
}

// ValidateStruct valida data y devuelve los campos inválidos (nil si todo es válido).
func ValidateStruct(data any) []FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Tag: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// Describe resume los errores en una sola línea para mensajes de error.
func Describe(errs []FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Param != "" {
			parts = append(parts, fmt.Sprintf("%s (%s=%s)", e.Field, e.Tag, e.Param))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", e.Field, e.Tag))
		}
	}
	return strings.Join(parts, ", ")
}
