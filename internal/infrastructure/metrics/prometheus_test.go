package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
)

func TestPrometheus_Contadores(t *testing.T) {
	m := New()

	m.BatchReserved("HSRP")
	m.BatchReserved("HSRP")
	m.BatchFinished("COMPLETED", 250, 40*time.Millisecond)
	m.BatchFinished("FAILED", 0, time.Second)
	m.Redemption(ports.RedemptionOK)
	m.Redemption(ports.RedemptionDuplicate)
	m.Redemption(ports.RedemptionDuplicate)
	m.OutwardRejected("SNAP")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.batchesReserved.WithLabelValues("HSRP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchesFinished.WithLabelValues("FAILED")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.codesCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.redemptions.WithLabelValues(ports.RedemptionDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outwardRejected.WithLabelValues("SNAP")))
}

func TestPrometheus_ProfundidadDeColas(t *testing.T) {
	m := New()
	depth := int64(3)
	require.NoError(t, m.RegisterQueueDepth("jobs:batch_materialize", func(context.Context) (int64, error) { return depth, nil }))
	require.NoError(t, m.RegisterQueueDepth("dlq:jobs:batch_materialize", func(context.Context) (int64, error) {
		return 0, errors.New("redis caído")
	}))

	expected := `
# HELP qrcert_queue_depth Elementos en espera por cola (lotes pendientes y dead letter).
# TYPE qrcert_queue_depth gauge
qrcert_queue_depth{queue="dlq:jobs:batch_materialize"} -1
qrcert_queue_depth{queue="jobs:batch_materialize"} 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "qrcert_queue_depth"))

	// Se lee en cada scrape.
	depth = 7
	expected = strings.Replace(expected, "} 3", "} 7", 1)
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "qrcert_queue_depth"))

	// Una misma cola no se registra dos veces.
	assert.Error(t, m.RegisterQueueDepth("jobs:batch_materialize", func(context.Context) (int64, error) { return 0, nil }))
}
