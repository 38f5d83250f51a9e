// Package daterange: parseo de rangos de fechas inclusivos recibidos por query string.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// Parse convierte from/to (RFC3339 o YYYY-MM-DD, UTC) en límites inclusivos.
// Una fecha sin hora en "to" cubre el día completo. Vacío = sin límite.
func Parse(from, to string) (*time.Time, *time.Time, error) {
	f, err := parse(from, false)
	if err != nil {
		return nil, nil, fmt.Errorf("from: %w", err)
	}
	t, err := parse(to, true)
	if err != nil {
		return nil, nil, fmt.Errorf("to: %w", err)
	}
	if f != nil && t != nil && f.After(*t) {
		return nil, nil, fmt.Errorf("from posterior a to")
	}
	return f, t, nil
}

func parse(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnly, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("fecha inválida %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
