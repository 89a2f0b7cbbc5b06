package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var (
	_ repository.StoreRepository     = (*StoreRepo)(nil)
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.StockRepository     = (*StockRepo)(nil)
	_ repository.ParameterRepository = (*ParameterRepo)(nil)
)

// StoreRepo tiendas en memoria.
type StoreRepo struct{ scope }

// NewStoreRepository repositorio sobre el estado confirmado.
func NewStoreRepository(db *Store) *StoreRepo { return &StoreRepo{scope{db: db}} }

// GetByCode nil, nil si no existe.
func (r *StoreRepo) GetByCode(ctx context.Context, code string) (*entity.Store, error) {
	var out *entity.Store
	err := r.with(ctx, func(d *dataset) error {
		if s, ok := d.stores[inventory.NormalizeCode(code)]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// List tiendas ordenadas por código.
func (r *StoreRepo) List(ctx context.Context) ([]*entity.Store, error) {
	var out []*entity.Store
	err := r.with(ctx, func(d *dataset) error {
		for _, s := range d.stores {
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

// ProductRepo catálogo en memoria.
type ProductRepo struct{ scope }

// NewProductRepository repositorio sobre el estado confirmado.
func NewProductRepository(db *Store) *ProductRepo { return &ProductRepo{scope{db: db}} }

// GetByCode nil, nil si no existe.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(ctx, func(d *dataset) error {
		if p, ok := d.products[inventory.NormalizeCode(code)]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// ResolveCode código principal o, en su defecto, el alterno registrado.
func (r *ProductRepo) ResolveCode(ctx context.Context, code string) (string, error) {
	var out string
	err := r.with(ctx, func(d *dataset) error {
		c := inventory.NormalizeCode(code)
		if _, ok := d.products[c]; ok {
			out = c
			return nil
		}
		out = d.altCodes[c]
		return nil
	})
	return out, err
}

// StockRepo stock por tienda en memoria.
type StockRepo struct{ scope }

// NewStockRepository repositorio sobre el estado confirmado.
func NewStockRepository(db *Store) *StockRepo { return &StockRepo{scope{db: db}} }

// Get cero si no hay fila.
func (r *StockRepo) Get(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error) {
	var out *entity.StockLevel
	err := r.with(ctx, func(d *dataset) error {
		out = d.stockLevel(productCode, storeCode)
		return nil
	})
	return out, err
}

// GetForUpdate igual que Get; el aislamiento lo da la transacción en curso.
func (r *StockRepo) GetForUpdate(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error) {
	return r.Get(ctx, productCode, storeCode)
}

// ListReplenishmentSnapshots mismo contrato que la consulta SQL.
func (r *StockRepo) ListReplenishmentSnapshots(
	ctx context.Context,
	origin, destination string,
	filter repository.SnapshotFilter,
) ([]entity.ReplenishmentSnapshot, error) {
	var out []entity.ReplenishmentSnapshot
	err := r.with(ctx, func(d *dataset) error {
		for k, p := range d.params {
			if k.store != destination {
				continue
			}
			product, ok := d.products[k.product]
			if !ok {
				continue
			}
			if filter.Department != "" && product.Department != filter.Department {
				continue
			}
			if filter.ProductCode != "" && product.Code != filter.ProductCode {
				continue
			}
			out = append(out, entity.ReplenishmentSnapshot{
				ProductCode:          product.Code,
				Description:          product.Description,
				Department:           product.Department,
				Unit:                 product.Unit,
				UnitConversionFactor: product.UnitConversionFactor,
				StockOrigin:          d.stockLevel(product.Code, origin).Quantity,
				StockDestination:     d.stockLevel(product.Code, destination).Quantity,
				MinimalStock:         p.MinimalStock,
				MaximumStock:         p.MaximumStock,
				Location:             p.Location,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out, err
}

func (d *dataset) stockLevel(productCode, storeCode string) *entity.StockLevel {
	k := key{inventory.NormalizeCode(productCode), inventory.NormalizeCode(storeCode)}
	if s, ok := d.stock[k]; ok {
		return &s
	}
	return &entity.StockLevel{ProductCode: k.product, StoreCode: k.store, Quantity: decimal.Zero}
}

// ParameterRepo parámetros mínimo/máximo en memoria.
type ParameterRepo struct{ scope }

// NewParameterRepository repositorio sobre el estado confirmado.
func NewParameterRepository(db *Store) *ParameterRepo { return &ParameterRepo{scope{db: db}} }

// Get domain.ErrNotFound si no hay fila.
func (r *ParameterRepo) Get(ctx context.Context, productCode, storeCode string) (*entity.ReplenishmentParameter, error) {
	var out *entity.ReplenishmentParameter
	err := r.with(ctx, func(d *dataset) error {
		k := key{inventory.NormalizeCode(productCode), inventory.NormalizeCode(storeCode)}
		p, ok := d.params[k]
		if !ok {
			return fmt.Errorf("parámetros %s en %s: %w", k.product, k.store, domain.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

// Upsert inserta o reemplaza.
func (r *ParameterRepo) Upsert(ctx context.Context, p *entity.ReplenishmentParameter) error {
	return r.with(ctx, func(d *dataset) error {
		k := key{inventory.NormalizeCode(p.ProductCode), inventory.NormalizeCode(p.StoreCode)}
		v := *p
		v.ProductCode, v.StoreCode = k.product, k.store
		if v.UpdatedAt.IsZero() {
			v.UpdatedAt = time.Now()
		}
		d.params[k] = v
		return nil
	})
}
