package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
)

// DLQPrefix prefijo de la lista de lotes fallidos por cola de origen: dlq:{cola}.
const DLQPrefix = "dlq:"

// DLQEntry lote fallido con metadatos para inspección manual.
type DLQEntry struct {
	OriginalQueue string `json:"original_queue"`
	JobType       string `json:"job_type"`
	BatchID       string `json:"batch_id"`
	Reason        string `json:"reason"`
	FailedAt      string `json:"failed_at"` // ISO 8601
	Attempts      int    `json:"attempts"`
}

var (
	_ ports.DeadLetterSink = (*RedisDLQ)(nil)
	_ ports.DeadLetterSink = (*LogDLQ)(nil)
)

// RedisDLQ guarda los lotes FAILED en dlq:jobs:batch_materialize. No hay reintento automático.
type RedisDLQ struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisDLQ construye el sink.
func NewRedisDLQ(rdb *redis.Client, log zerolog.Logger) *RedisDLQ {
	return &RedisDLQ{rdb: rdb, log: log}
}

// Send agrega la entrada a la DLQ; los errores solo se registran.
func (d *RedisDLQ) Send(ctx context.Context, e ports.DeadLetter) {
	entry := DLQEntry{
		OriginalQueue: QueueBatchMaterialize,
		JobType:       JobBatchMaterialize,
		BatchID:       e.BatchID,
		Reason:        e.Reason,
		FailedAt:      e.FailedAt.UTC().Format(time.RFC3339),
		Attempts:      1,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		d.log.Error().Err(err).Str("batch_id", e.BatchID).Msg("dlq: no se pudo serializar la entrada")
		return
	}
	key := DLQPrefix + QueueBatchMaterialize
	if err := d.rdb.LPush(ctx, key, data).Err(); err != nil {
		d.log.Error().Err(err).Str("dlq_key", key).Msg("dlq: no se pudo encolar")
		return
	}
	d.log.Warn().Str("batch_id", e.BatchID).Str("reason", e.Reason).Msg("dlq: lote movido a la dead letter queue")
}

// Length devuelve la cantidad de entradas en la DLQ (monitoreo).
func (d *RedisDLQ) Length(ctx context.Context) (int64, error) {
	return d.rdb.LLen(ctx, DLQPrefix+QueueBatchMaterialize).Result()
}

// LogDLQ sink sin Redis: el lote FAILED persistido es el registro, aquí solo se loguea.
type LogDLQ struct {
	log zerolog.Logger
}

// NewLogDLQ construye el sink.
func NewLogDLQ(log zerolog.Logger) *LogDLQ {
	return &LogDLQ{log: log}
}

func (d *LogDLQ) Send(_ context.Context, e ports.DeadLetter) {
	d.log.Warn().
		Str("batch_id", e.BatchID).
		Str("reason", e.Reason).
		Time("failed_at", e.FailedAt).
		Msg("dlq: lote FAILED")
}
