package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ repository.ParameterRepository = (*ParameterRepo)(nil)

// ParameterRepo mínimos y máximos por tienda (tabla products_failures).
type ParameterRepo struct {
	q Querier
}

// NewParameterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewParameterRepository(q Querier) *ParameterRepo {
	return &ParameterRepo{q: q}
}

// Get devuelve domain.ErrNotFound si no hay parámetros.
func (r *ParameterRepo) Get(ctx context.Context, productCode, storeCode string) (*entity.ReplenishmentParameter, error) {
	query := `
		SELECT code_product, code_store, minimal_stock, maximum_stock, location, updated_at
		FROM products_failures WHERE code_product = $1 AND code_store = $2`
	var p entity.ReplenishmentParameter
	err := r.q.QueryRow(ctx, query, productCode, storeCode).Scan(
		&p.ProductCode, &p.StoreCode, &p.MinimalStock, &p.MaximumStock, &p.Location, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("parámetros %s en %s: %w", productCode, storeCode, domain.ErrNotFound)
		}
		return nil, wrap("get replenishment parameter", err)
	}
	return &p, nil
}

// Upsert inserta o actualiza mínimo, máximo y ubicación.
func (r *ParameterRepo) Upsert(ctx context.Context, p *entity.ReplenishmentParameter) error {
	query := `
		INSERT INTO products_failures (code_product, code_store, minimal_stock, maximum_stock, location, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code_product, code_store)
		DO UPDATE SET minimal_stock = EXCLUDED.minimal_stock,
		              maximum_stock = EXCLUDED.maximum_stock,
		              location = EXCLUDED.location,
		              updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, p.ProductCode, p.StoreCode, p.MinimalStock, p.MaximumStock, p.Location, p.UpdatedAt)
	return wrap("upsert replenishment parameter", err)
}
