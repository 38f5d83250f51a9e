// Package memory: implementación en memoria de los repositorios y del TxRunner.
// Las transacciones se serializan con un único mutex y trabajan sobre una copia del estado
// que solo se publica al hacer commit; un error en fn descarta todos los cambios.
// Se usa en tests y con STORAGE_DRIVER=memory en desarrollo.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

type state struct {
	batches    map[string]*entity.Batch
	counters   map[string]int64
	qrByID     map[string]*entity.QrCode
	qrByValue  map[string]string
	qrBySerial map[string]string
	certs      map[string]*entity.Certificate
	certByQr   map[string]string
	logs       map[string]*entity.InventoryLogEntry
}

func newState() *state {
	return &state{
		batches:    map[string]*entity.Batch{},
		counters:   map[string]int64{},
		qrByID:     map[string]*entity.QrCode{},
		qrByValue:  map[string]string{},
		qrBySerial: map[string]string{},
		certs:      map[string]*entity.Certificate{},
		certByQr:   map[string]string{},
		logs:       map[string]*entity.InventoryLogEntry{},
	}
}

// clone copia los mapas; las entidades se tratan como inmutables (toda escritura reemplaza el puntero).
func (s *state) clone() *state {
	return &state{
		batches:    cloneMap(s.batches),
		counters:   cloneMap(s.counters),
		qrByID:     cloneMap(s.qrByID),
		qrByValue:  cloneMap(s.qrByValue),
		qrBySerial: cloneMap(s.qrBySerial),
		certs:      cloneMap(s.certs),
		certByQr:   cloneMap(s.certByQr),
		logs:       cloneMap(s.logs),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store almacén en memoria. El valor cero no es usable: construir con New.
// El catálogo tiene su propio lock: se consulta también desde dentro de una transacción.
type Store struct {
	mu  sync.Mutex
	st  *state
	cat *catalog
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{st: newState(), cat: newCatalog()}
}

// Run ejecuta fn con repositorios atados a una copia del estado; Commit si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(s.repos(work)); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Snapshot ejecuta fn sobre el estado publicado con el mutex tomado.
func (s *Store) Snapshot(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.repos(s.st))
}

func (s *Store) repos(tx *state) ports.TxRepos {
	return ports.TxRepos{
		Batches:       &BatchRepo{s: s, tx: tx},
		Counters:      &CounterRepo{s: s, tx: tx},
		QrCodes:       &QrCodeRepo{s: s, tx: tx},
		Certificates:  &CertificateRepo{s: s, tx: tx},
		InventoryLogs: &InventoryLogRepo{s: s, tx: tx},
		Stats:         &StatsRepo{s: s, tx: tx},
		Locks:         scopeLocker{},
	}
}

// view ejecuta fn sobre el estado de la tx, o sobre el estado publicado tomando el mutex.
func (s *Store) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Batches repositorio de lotes fuera de transacción.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{s: s} }

// QrCodes repositorio de códigos fuera de transacción.
func (s *Store) QrCodes() *QrCodeRepo { return &QrCodeRepo{s: s} }

// Certificates repositorio de certificados fuera de transacción.
func (s *Store) Certificates() *CertificateRepo { return &CertificateRepo{s: s} }

// InventoryLogs repositorio de movimientos fuera de transacción.
func (s *Store) InventoryLogs() *InventoryLogRepo { return &InventoryLogRepo{s: s} }

// Stats repositorio de agregados fuera de transacción.
func (s *Store) Stats() *StatsRepo { return &StatsRepo{s: s} }

// Catalog directorio de catálogo.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// scopeLocker no hace nada: Run ya serializa todas las transacciones.
type scopeLocker struct{}

func (scopeLocker) LockScope(context.Context, entity.Scope) error { return nil }
