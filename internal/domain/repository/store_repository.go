package repository

import (
	"context"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// StoreRepository define el puerto de lectura de tiendas. GetByCode devuelve nil, nil si no existe.
type StoreRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Store, error)
	List(ctx context.Context) ([]*entity.Store, error)
}
