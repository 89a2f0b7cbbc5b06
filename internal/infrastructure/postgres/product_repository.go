package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo lectura del catálogo de productos y sus códigos alternos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByCode obtiene un producto por código principal.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	query := `
		SELECT code, description, department, unit, unit_conversion_factor
		FROM products WHERE code = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, code).Scan(&p.Code, &p.Description, &p.Department, &p.Unit, &p.UnitConversionFactor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get product", err)
	}
	return &p, nil
}

// ResolveCode busca primero como código principal y luego en products_codes.
func (r *ProductRepo) ResolveCode(ctx context.Context, code string) (string, error) {
	query := `
		SELECT code FROM (
			SELECT code, 0 AS priority FROM products WHERE upper(code) = upper($1)
			UNION ALL
			SELECT main_code, 1 FROM products_codes WHERE upper(other_code) = upper($1)
		) c ORDER BY priority LIMIT 1`
	var main string
	err := r.q.QueryRow(ctx, query, code).Scan(&main)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", wrap("resolve product code", err)
	}
	return main, nil
}
