package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo directorio de catálogo sobre PostgreSQL. Solo lectura: se carga con cmd/seed_catalog.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

func (r *CatalogRepo) GetProduct(ctx context.Context, code string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT code, name, active FROM products WHERE code = $1`, code).Scan(&p.Code, &p.Name, &p.Active)
	if err != nil {
		return nilIfNoRows[entity.Product]("get product", err)
	}
	return &p, nil
}

func (r *CatalogRepo) GetState(ctx context.Context, code string) (*entity.State, error) {
	var s entity.State
	err := r.q.QueryRow(ctx, `SELECT code, name, active FROM states WHERE code = $1`, code).Scan(&s.Code, &s.Name, &s.Active)
	if err != nil {
		return nilIfNoRows[entity.State]("get state", err)
	}
	return &s, nil
}

func (r *CatalogRepo) GetOEM(ctx context.Context, code string) (*entity.OEM, error) {
	var o entity.OEM
	err := r.q.QueryRow(ctx, `SELECT code, name, active FROM oems WHERE code = $1`, code).Scan(&o.Code, &o.Name, &o.Active)
	if err != nil {
		return nilIfNoRows[entity.OEM]("get oem", err)
	}
	return &o, nil
}

func (r *CatalogRepo) IsOEMAuthorized(ctx context.Context, oemCode, stateCode string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM oem_state_authorizations WHERE oem_code = $1 AND state_code = $2)`,
		oemCode, stateCode).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check oem authorization: %w", err)
	}
	return ok, nil
}

func (r *CatalogRepo) GetDealer(ctx context.Context, id string) (*entity.Dealer, error) {
	var d entity.Dealer
	err := r.q.QueryRow(ctx, `
		SELECT id, name, phone, address, tax_id, state_code, oem_codes, active
		FROM dealers WHERE id = $1`, id).Scan(
		&d.ID, &d.Name, &d.Phone, &d.Address, &d.TaxID, &d.StateCode, &d.OEMCodes, &d.Active,
	)
	if err != nil {
		return nilIfNoRows[entity.Dealer]("get dealer", err)
	}
	return &d, nil
}

func (r *CatalogRepo) GetRTO(ctx context.Context, code string) (*entity.RTO, error) {
	var o entity.RTO
	err := r.q.QueryRow(ctx, `SELECT code, name, state_code FROM rtos WHERE code = $1`, code).Scan(&o.Code, &o.Name, &o.StateCode)
	if err != nil {
		return nilIfNoRows[entity.RTO]("get rto", err)
	}
	return &o, nil
}

func nilIfNoRows[T any](op string, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}
