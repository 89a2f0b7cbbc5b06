package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una tienda; cero si no hay fila.
func (r *StockRepo) Get(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error) {
	return r.get(ctx, "get stock", `
		SELECT code_product, code_store, stock, updated_at
		FROM products_stock WHERE code_product = $1 AND code_store = $2`, productCode, storeCode)
}

// GetForUpdate obtiene el stock y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error) {
	return r.get(ctx, "get stock for update", `
		SELECT code_product, code_store, stock, updated_at
		FROM products_stock WHERE code_product = $1 AND code_store = $2
		FOR UPDATE`, productCode, storeCode)
}

func (r *StockRepo) get(ctx context.Context, op, query, productCode, storeCode string) (*entity.StockLevel, error) {
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, query, productCode, storeCode).Scan(
		&s.ProductCode, &s.StoreCode, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductCode: productCode, StoreCode: storeCode, Quantity: decimal.Zero}, nil
		}
		return nil, wrap(op, err)
	}
	return &s, nil
}

// ListReplenishmentSnapshots una fila por producto con parámetros en destination, con el stock
// de ambas tiendas (cero si falta) y los filtros opcionales de departamento y producto.
func (r *StockRepo) ListReplenishmentSnapshots(
	ctx context.Context,
	origin, destination string,
	filter repository.SnapshotFilter,
) ([]entity.ReplenishmentSnapshot, error) {
	query := `
		SELECT p.code, p.description, p.department, p.unit, p.unit_conversion_factor,
		       COALESCE(so.stock, 0), COALESCE(sd.stock, 0),
		       COALESCE(f.minimal_stock, 0), COALESCE(f.maximum_stock, 0), COALESCE(f.location, '')
		FROM products_failures f
		JOIN products p ON p.code = f.code_product
		LEFT JOIN products_stock so ON so.code_product = f.code_product AND so.code_store = $1
		LEFT JOIN products_stock sd ON sd.code_product = f.code_product AND sd.code_store = $2
		WHERE f.code_store = $2
		  AND ($3::text = '' OR p.department = $3::text)
		  AND ($4::text = '' OR f.code_product = $4::text)
		ORDER BY COALESCE(sd.stock, 0), p.code`
	rows, err := r.q.Query(ctx, query, origin, destination, filter.Department, filter.ProductCode)
	if err != nil {
		return nil, wrap("list replenishment snapshots", err)
	}
	defer rows.Close()

	var list []entity.ReplenishmentSnapshot
	for rows.Next() {
		var s entity.ReplenishmentSnapshot
		if err := rows.Scan(
			&s.ProductCode, &s.Description, &s.Department, &s.Unit, &s.UnitConversionFactor,
			&s.StockOrigin, &s.StockDestination, &s.MinimalStock, &s.MaximumStock, &s.Location,
		); err != nil {
			return nil, wrap("scan replenishment snapshot", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list replenishment snapshots", err)
	}
	return list, nil
}
