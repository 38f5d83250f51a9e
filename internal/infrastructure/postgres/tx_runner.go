package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// La exclusión mutua la dan los FOR UPDATE y los advisory locks que toman los repos.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	return r.run(ctx, pgx.TxOptions{}, fn)
}

// Snapshot ejecuta fn en una transacción REPEATABLE READ de solo lectura: todas las consultas ven el mismo snapshot.
func (r *TxRunner) Snapshot(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(repos ports.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func reposFor(q Querier) ports.TxRepos {
	return ports.TxRepos{
		Batches:       NewBatchRepository(q),
		Counters:      NewSerialCounterRepository(q),
		QrCodes:       NewQrCodeRepository(q),
		Certificates:  NewCertificateRepository(q),
		InventoryLogs: NewInventoryLogRepository(q),
		Stats:         NewStatsRepository(q),
		Locks:         NewScopeLocker(q),
	}
}
