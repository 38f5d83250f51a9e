package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
	"github.com/jhoicas/qrcert-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

type catalog struct {
	mu             sync.RWMutex
	products       map[string]entity.Product
	states         map[string]entity.State
	oems           map[string]entity.OEM
	authorizations map[string]bool
	dealers        map[string]entity.Dealer
	rtos           map[string]entity.RTO
}

func newCatalog() *catalog {
	return &catalog{
		products:       map[string]entity.Product{},
		states:         map[string]entity.State{},
		oems:           map[string]entity.OEM{},
		authorizations: map[string]bool{},
		dealers:        map[string]entity.Dealer{},
		rtos:           map[string]entity.RTO{},
	}
}

// CatalogRepo directorio de catálogo en memoria.
type CatalogRepo struct {
	s *Store
}

// AddProduct registra un producto.
func (r *CatalogRepo) AddProduct(p entity.Product) {
	r.s.cat.mu.Lock()
	defer r.s.cat.mu.Unlock()
	r.s.cat.products[p.Code] = p
}

// AddState registra un estado.
func (r *CatalogRepo) AddState(st entity.State) {
	r.s.cat.mu.Lock()
	defer r.s.cat.mu.Unlock()
	r.s.cat.states[st.Code] = st
}

// AddOEM registra un OEM.
func (r *CatalogRepo) AddOEM(o entity.OEM) {
	r.s.cat.mu.Lock()
	defer r.s.cat.mu.Unlock()
	r.s.cat.oems[o.Code] = o
}

// Authorize autoriza al OEM a emitir en el estado.
func (r *CatalogRepo) Authorize(oemCode, stateCode string) {
	r.s.cat.mu.Lock()
	defer r.s.cat.mu.Unlock()
	r.s.cat.authorizations[oemCode+":"+stateCode] = true
}

// AddDealer registra un dealer.
func (r *CatalogRepo) AddDealer(d entity.Dealer) {
	r.s.cat.mu.Lock()
	defer r.s.cat.mu.Unlock()
	d.OEMCodes = append([]string(nil), d.OEMCodes...)
	r.s.cat.dealers[d.ID] = d
}

// AddRTO registra una oficina RTO.
func (r *CatalogRepo) AddRTO(o entity.RTO) {
	r.s.cat.mu.Lock()
	defer r.s.cat.mu.Unlock()
	r.s.cat.rtos[o.Code] = o
}

// GetProduct obtiene un producto por código.
func (r *CatalogRepo) GetProduct(_ context.Context, code string) (*entity.Product, error) {
	r.s.cat.mu.RLock()
	defer r.s.cat.mu.RUnlock()
	if p, ok := r.s.cat.products[code]; ok {
		return &p, nil
	}
	return nil, nil
}

// GetState obtiene un estado por código.
func (r *CatalogRepo) GetState(_ context.Context, code string) (*entity.State, error) {
	r.s.cat.mu.RLock()
	defer r.s.cat.mu.RUnlock()
	if st, ok := r.s.cat.states[code]; ok {
		return &st, nil
	}
	return nil, nil
}

// GetOEM obtiene un OEM por código.
func (r *CatalogRepo) GetOEM(_ context.Context, code string) (*entity.OEM, error) {
	r.s.cat.mu.RLock()
	defer r.s.cat.mu.RUnlock()
	if o, ok := r.s.cat.oems[code]; ok {
		return &o, nil
	}
	return nil, nil
}

// IsOEMAuthorized indica si el OEM puede emitir en el estado.
func (r *CatalogRepo) IsOEMAuthorized(_ context.Context, oemCode, stateCode string) (bool, error) {
	r.s.cat.mu.RLock()
	defer r.s.cat.mu.RUnlock()
	return r.s.cat.authorizations[oemCode+":"+stateCode], nil
}

// GetDealer obtiene un dealer por ID.
func (r *CatalogRepo) GetDealer(_ context.Context, id string) (*entity.Dealer, error) {
	r.s.cat.mu.RLock()
	defer r.s.cat.mu.RUnlock()
	if d, ok := r.s.cat.dealers[id]; ok {
		d.OEMCodes = append([]string(nil), d.OEMCodes...)
		return &d, nil
	}
	return nil, nil
}

// GetRTO obtiene una oficina RTO por código.
func (r *CatalogRepo) GetRTO(_ context.Context, code string) (*entity.RTO, error) {
	r.s.cat.mu.RLock()
	defer r.s.cat.mu.RUnlock()
	if o, ok := r.s.cat.rtos[code]; ok {
		return &o, nil
	}
	return nil, nil
}
