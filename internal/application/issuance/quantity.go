package issuance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/qrcert-api/internal/domain"
)

// ParseQuantity valida la cantidad solicitada antes de cualquier trabajo de asignación.
// Acepta únicamente enteros en base 10 entre 1 y max (inclusive).
func ParseQuantity(raw string, max int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: quantity es obligatorio", domain.ErrValidation)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: quantity excede el máximo de %d", domain.ErrValidation, max)
		}
		return 0, fmt.Errorf("%w: quantity debe ser un entero, se recibió %q", domain.ErrValidation, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: quantity debe ser positivo", domain.ErrValidation)
	}
	if n > max {
		return 0, fmt.Errorf("%w: quantity excede el máximo de %d", domain.ErrValidation, max)
	}
	return n, nil
}
