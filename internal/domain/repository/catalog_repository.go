package repository

import (
	"context"

	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// CatalogRepository directorio de productos, estados, OEMs, dealers y RTOs.
// Los Get devuelven (nil, nil) si el código no existe.
type CatalogRepository interface {
	GetProduct(ctx context.Context, code string) (*entity.Product, error)
	GetState(ctx context.Context, code string) (*entity.State, error)
	GetOEM(ctx context.Context, code string) (*entity.OEM, error)
	IsOEMAuthorized(ctx context.Context, oemCode, stateCode string) (bool, error)
	GetDealer(ctx context.Context, id string) (*entity.Dealer, error)
	GetRTO(ctx context.Context, code string) (*entity.RTO, error)
}
