package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

// StockSnapshotReader lecturas puntuales de stock y parámetros por tienda+producto. Sin efectos.
type StockSnapshotReader struct {
	stockRepo repository.StockRepository
	paramRepo repository.ParameterRepository
}

// NewStockSnapshotReader construye el lector.
func NewStockSnapshotReader(stockRepo repository.StockRepository, paramRepo repository.ParameterRepository) *StockSnapshotReader {
	return &StockSnapshotReader{stockRepo: stockRepo, paramRepo: paramRepo}
}

// Read stock actual; cero si no hay fila.
func (r *StockSnapshotReader) Read(ctx context.Context, productCode, storeCode string) (*entity.StockLevel, error) {
	return r.stockRepo.Get(ctx, inventory.NormalizeCode(productCode), inventory.NormalizeCode(storeCode))
}

// ReadParameter devuelve domain.ErrNotFound si el producto no tiene parámetros en la tienda.
func (r *StockSnapshotReader) ReadParameter(ctx context.Context, productCode, storeCode string) (*entity.ReplenishmentParameter, error) {
	return r.paramRepo.Get(ctx, inventory.NormalizeCode(productCode), inventory.NormalizeCode(storeCode))
}

// ParameterUseCase configuración de mínimos y máximos por tienda.
type ParameterUseCase struct {
	reader      *StockSnapshotReader
	paramRepo   repository.ParameterRepository
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
}

// NewParameterUseCase construye el caso de uso.
func NewParameterUseCase(
	reader *StockSnapshotReader,
	paramRepo repository.ParameterRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
) *ParameterUseCase {
	return &ParameterUseCase{reader: reader, paramRepo: paramRepo, storeRepo: storeRepo, productRepo: productRepo}
}

// ParameterView parámetros vigentes; Configured = false cuando no hay fila (mínimo y máximo en cero).
type ParameterView struct {
	entity.ReplenishmentParameter
	Configured bool
}

// Get lee los parámetros tratando su ausencia como mínimo y máximo cero.
func (uc *ParameterUseCase) Get(ctx context.Context, storeCode, productCode string) (*ParameterView, error) {
	p, err := uc.reader.ReadParameter(ctx, productCode, storeCode)
	if errors.Is(err, domain.ErrNotFound) {
		return &ParameterView{ReplenishmentParameter: entity.ReplenishmentParameter{
			ProductCode:  inventory.NormalizeCode(productCode),
			StoreCode:    inventory.NormalizeCode(storeCode),
			MinimalStock: decimal.Zero,
			MaximumStock: decimal.Zero,
		}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ParameterView{ReplenishmentParameter: *p, Configured: true}, nil
}

// UpsertParameterInput datos de configuración mínimo/máximo.
type UpsertParameterInput struct {
	StoreCode    string
	ProductCode  string
	MinimalStock decimal.Decimal
	MaximumStock decimal.Decimal
	Location     string
}

// Upsert valida máximo >= mínimo (ambos no negativos) y guarda los parámetros.
func (uc *ParameterUseCase) Upsert(ctx context.Context, in UpsertParameterInput) (*entity.ReplenishmentParameter, error) {
	storeCode := inventory.NormalizeCode(in.StoreCode)
	productCode := inventory.NormalizeCode(in.ProductCode)
	switch {
	case storeCode == "":
		return nil, domain.NewValidationError("store", "es obligatorio")
	case productCode == "":
		return nil, domain.NewValidationError("product", "es obligatorio")
	case in.MinimalStock.IsNegative():
		return nil, domain.NewValidationError("minimal_stock", "no puede ser negativo")
	case in.MaximumStock.IsNegative():
		return nil, domain.NewValidationError("maximum_stock", "no puede ser negativo")
	case in.MaximumStock.LessThan(in.MinimalStock):
		return nil, domain.NewValidationError("maximum_stock", "debe ser mayor o igual al mínimo")
	}

	if err := requireStores(ctx, uc.storeRepo, storeCode); err != nil {
		return nil, err
	}
	resolved, err := uc.productRepo.ResolveCode(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if resolved == "" {
		return nil, fmt.Errorf("producto %s: %w", productCode, domain.ErrNotFound)
	}

	p := &entity.ReplenishmentParameter{
		ProductCode:  resolved,
		StoreCode:    storeCode,
		MinimalStock: in.MinimalStock,
		MaximumStock: in.MaximumStock,
		Location:     strings.TrimSpace(in.Location),
		UpdatedAt:    time.Now(),
	}
	if err := uc.paramRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
