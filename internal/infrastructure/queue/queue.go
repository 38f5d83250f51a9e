// Package queue cola de materialización de lotes, pool de workers, DLQ y barrido de lotes PENDING.
// Con Redis la cola es una lista (LPUSH/BRPOP); sin Redis, un canal en proceso.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
)

const (
	QueueBatchMaterialize = "jobs:batch_materialize"
	JobBatchMaterialize   = "batch_materialize"

	// popTimeout espera máxima de BRPOP antes de volver a revisar el contexto.
	popTimeout = 5 * time.Second
)

// ErrQueueFull la cola local no admite más lotes; el barrido los recogerá.
var ErrQueueFull = errors.New("cola de lotes llena")

// Source entrega IDs de lote a los workers. Next devuelve ("", nil) si no hubo trabajo en la espera.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// Job sobre genérico de la cola en Redis.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type batchPayload struct {
	BatchID string `json:"batch_id"`
}

var (
	_ ports.BatchQueue = (*RedisQueue)(nil)
	_ Source           = (*RedisQueue)(nil)
	_ ports.BatchQueue = (*LocalQueue)(nil)
	_ Source           = (*LocalQueue)(nil)
)

// RedisQueue encola lotes en una lista de Redis. Los workers la consumen con BRPOP.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue construye la cola sobre el cliente Redis.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

// Enqueue publica el lote para materialización.
func (q *RedisQueue) Enqueue(ctx context.Context, batchID string) error {
	data, err := json.Marshal(batchPayload{BatchID: batchID})
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: JobBatchMaterialize, Payload: data})
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, QueueBatchMaterialize, encoded).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", QueueBatchMaterialize, err)
	}
	return nil
}

// Next bloquea hasta popTimeout esperando un lote.
func (q *RedisQueue) Next(ctx context.Context) (string, error) {
	result, err := q.rdb.BRPop(ctx, popTimeout, QueueBatchMaterialize).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	if len(result) < 2 {
		return "", nil
	}
	return decodeJob(result[1])
}

// Length devuelve la cantidad de lotes en espera.
func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, QueueBatchMaterialize).Result()
}

func decodeJob(raw string) (string, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return "", fmt.Errorf("decodificar job: %w", err)
	}
	if job.Type != JobBatchMaterialize {
		return "", fmt.Errorf("tipo de job desconocido %q", job.Type)
	}
	var p batchPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return "", fmt.Errorf("decodificar payload: %w", err)
	}
	if p.BatchID == "" {
		return "", fmt.Errorf("job sin batch_id")
	}
	return p.BatchID, nil
}

// LocalQueue cola en proceso con buffer fijo, para desarrollo y tests.
type LocalQueue struct {
	ch chan string
}

// NewLocalQueue crea una cola con capacidad size.
func NewLocalQueue(size int) *LocalQueue {
	if size <= 0 {
		size = 1024
	}
	return &LocalQueue{ch: make(chan string, size)}
}

// Enqueue no bloquea: con el buffer lleno devuelve ErrQueueFull.
func (q *LocalQueue) Enqueue(ctx context.Context, batchID string) error {
	select {
	case q.ch <- batchID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Next espera un lote hasta popTimeout o la cancelación del contexto.
func (q *LocalQueue) Next(ctx context.Context) (string, error) {
	timer := time.NewTimer(popTimeout)
	defer timer.Stop()
	select {
	case id := <-q.ch:
		return id, nil
	case <-timer.C:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
