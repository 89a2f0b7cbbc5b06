package repository

import (
	"context"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// ProductRepository define el puerto de lectura del catálogo de productos.
type ProductRepository interface {
	// GetByCode busca por código principal; nil, nil si no existe.
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// ResolveCode traduce un código alterno (barras, proveedor) al código principal.
	// Devuelve "" si ningún producto lo reconoce.
	ResolveCode(ctx context.Context, code string) (string, error)
}
