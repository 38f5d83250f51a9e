// Package metrics implementa ports.Metrics con Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
)

// depthTimeout espera máxima de una lectura de profundidad durante un scrape.
const depthTimeout = 2 * time.Second

var _ ports.Metrics = (*Prometheus)(nil)

// LengthFunc devuelve la cantidad de elementos de una cola, p. ej. RedisQueue.Length.
type LengthFunc func(ctx context.Context) (int64, error)

// Prometheus contadores del motor en un registry propio (no el global).
type Prometheus struct {
	registry        *prometheus.Registry
	batchesReserved *prometheus.CounterVec
	batchesFinished *prometheus.CounterVec
	codesCreated    prometheus.Counter
	batchDuration   *prometheus.HistogramVec
	redemptions     *prometheus.CounterVec
	outwardRejected *prometheus.CounterVec
}

// New registra las métricas del motor y los collectors de Go y del proceso.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	m := &Prometheus{
		registry: reg,
		batchesReserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrcert",
			Name:      "batches_reserved_total",
			Help:      "Lotes reservados por producto.",
		}, []string{"product"}),
		batchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrcert",
			Name:      "batches_finished_total",
			Help:      "Lotes que llegaron a un estado terminal.",
		}, []string{"status"}),
		codesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qrcert",
			Name:      "qr_codes_created_total",
			Help:      "Códigos QR materializados.",
		}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qrcert",
			Name:      "batch_materialize_seconds",
			Help:      "Duración de la materialización de un lote.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"status"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrcert",
			Name:      "redemptions_total",
			Help:      "Intentos de redención por resultado.",
		}, []string{"result"}),
		outwardRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrcert",
			Name:      "outward_rejected_total",
			Help:      "Salidas rechazadas por stock insuficiente.",
		}, []string{"product"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.batchesReserved, m.batchesFinished, m.codesCreated, m.batchDuration, m.redemptions, m.outwardRejected,
	)
	return m
}

func (m *Prometheus) BatchReserved(productCode string) {
	m.batchesReserved.WithLabelValues(productCode).Inc()
}

func (m *Prometheus) BatchFinished(status string, codes int64, elapsed time.Duration) {
	m.batchesFinished.WithLabelValues(status).Inc()
	m.batchDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if codes > 0 {
		m.codesCreated.Add(float64(codes))
	}
}

func (m *Prometheus) Redemption(result string) {
	m.redemptions.WithLabelValues(result).Inc()
}

func (m *Prometheus) OutwardRejected(productCode string) {
	m.outwardRejected.WithLabelValues(productCode).Inc()
}

// RegisterQueueDepth expone qrcert_queue_depth{queue=name}, leído en cada scrape.
// Si la lectura falla el gauge vale -1.
func (m *Prometheus) RegisterQueueDepth(name string, length LengthFunc) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "qrcert",
		Name:        "queue_depth",
		Help:        "Elementos en espera por cola (lotes pendientes y dead letter).",
		ConstLabels: prometheus.Labels{"queue": name},
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), depthTimeout)
		defer cancel()
		n, err := length(ctx)
		if err != nil {
			return -1
		}
		return float64(n)
	}))
}

// Handler expone el registry en formato Prometheus.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry devuelve el registry (tests y collectors adicionales).
func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}
