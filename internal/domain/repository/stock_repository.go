package repository

import (
	"context"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// SnapshotFilter filtros opcionales de la consulta de reposición; vacío = sin filtro.
type SnapshotFilter struct {
	Department  string
	ProductCode string
}

// StockRepository define el puerto de lectura de stock por tienda+producto.
// Una fila ausente se devuelve como cantidad cero, nunca como error.
type StockRepository interface {
	Get(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error)
	// ListReplenishmentSnapshots devuelve una fila por producto con parámetros en destination.
	ListReplenishmentSnapshots(ctx context.Context, origin, destination string, filter SnapshotFilter) ([]entity.ReplenishmentSnapshot, error)
}
