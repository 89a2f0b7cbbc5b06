package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

// ReplenishmentUseCase propone las líneas a trasladar desde una tienda de origen hacia una de destino
// para los productos que en destino quedaron por debajo de su mínimo.
type ReplenishmentUseCase struct {
	stockRepo   repository.StockRepository
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	stockRepo repository.StockRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		stockRepo:   stockRepo,
		storeRepo:   storeRepo,
		productRepo: productRepo,
	}
}

// ProposeInput origen y destino obligatorios; Department y ProductCode son filtros opcionales.
type ProposeInput struct {
	Origin      string
	Destination string
	Department  string
	ProductCode string
}

// Propose devuelve los candidatos ordenados por stock en destino ascendente.
// No escribe nada: dos llamadas sobre el mismo stock dan el mismo resultado.
func (uc *ReplenishmentUseCase) Propose(ctx context.Context, in ProposeInput) ([]inventory.Candidate, error) {
	origin := inventory.NormalizeCode(in.Origin)
	destination := inventory.NormalizeCode(in.Destination)
	if origin == "" {
		return nil, domain.NewValidationError("origin", "es obligatorio")
	}
	if destination == "" {
		return nil, domain.NewValidationError("destination", "es obligatorio")
	}
	if origin == destination {
		return nil, domain.NewValidationError("destination", "debe ser distinta del origen")
	}
	if err := requireStores(ctx, uc.storeRepo, origin, destination); err != nil {
		return nil, err
	}

	filter := repository.SnapshotFilter{Department: in.Department}
	if code := inventory.NormalizeCode(in.ProductCode); code != "" {
		resolved, err := uc.productRepo.ResolveCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return nil, fmt.Errorf("producto %s: %w", code, domain.ErrNotFound)
		}
		filter.ProductCode = resolved
	}

	snapshots, err := uc.stockRepo.ListReplenishmentSnapshots(ctx, origin, destination, filter)
	if err != nil {
		return nil, err
	}
	return inventory.SelectReplenishment(snapshots), nil
}

// Stores tiendas disponibles como origen o destino.
func (uc *ReplenishmentUseCase) Stores(ctx context.Context) ([]*entity.Store, error) {
	return uc.storeRepo.List(ctx)
}

func requireStores(ctx context.Context, storeRepo repository.StoreRepository, codes ...string) error {
	for _, code := range codes {
		s, err := storeRepo.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("tienda %s: %w", code, domain.ErrNotFound)
		}
	}
	return nil
}
