package repository

import (
	"context"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// ParameterRepository define el puerto de los parámetros mínimo/máximo por tienda+producto.
type ParameterRepository interface {
	// Get devuelve domain.ErrNotFound si no hay fila.
	Get(ctx context.Context, productCode, storeCode string) (*entity.ReplenishmentParameter, error)
	Upsert(ctx context.Context, p *entity.ReplenishmentParameter) error
}
