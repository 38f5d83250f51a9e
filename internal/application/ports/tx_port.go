package ports

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Batches       repository.BatchRepository
	Counters      repository.SerialCounterRepository
	QrCodes       repository.QrCodeRepository
	Certificates  repository.CertificateRepository
	InventoryLogs repository.InventoryLogRepository
	Stats         repository.StatsRepository
	Locks         repository.ScopeLocker
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
	// Snapshot ejecuta lecturas sobre una vista consistente (sin escrituras).
	Snapshot(ctx context.Context, fn func(repos TxRepos) error) error
}
