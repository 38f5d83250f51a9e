package ports

import (
	"context"
	"time"
)

// Metrics contadores del motor. Lo implementa infrastructure/metrics con Prometheus.
type Metrics interface {
	BatchReserved(productCode string)
	BatchFinished(status string, codes int64, elapsed time.Duration)
	Redemption(result string)
	OutwardRejected(productCode string)
}

// Resultados de redención para métricas.
const (
	RedemptionOK        = "ok"
	RedemptionDuplicate = "duplicate"
	RedemptionNotFound  = "not_found"
	RedemptionInvalid   = "invalid"
	RedemptionForbidden = "forbidden"
	RedemptionError     = "error"
)

// NopMetrics descarta todas las métricas.
type NopMetrics struct{}

func (NopMetrics) BatchReserved(string) {}
func (NopMetrics) BatchFinished(string, int64, time.Duration) {}
func (NopMetrics) Redemption(string) {}
func (NopMetrics) OutwardRejected(string) {}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

func (NopPublisher) Publish(BatchEvent) {}

// NopDeadLetters descarta los lotes fallidos.
type NopDeadLetters struct{}

func (NopDeadLetters) Send(context.Context, DeadLetter) {}
