package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// InventoryOperationRepository define el puerto de persistencia de cabeceras y líneas de
// operaciones de inventario. Toda falla de E/S se devuelve como *domain.PersistenceError.
type InventoryOperationRepository interface {
	// CreateHeader inserta la cabecera y devuelve el correlativo asignado por el almacén.
	CreateHeader(ctx context.Context, op *entity.InventoryOperation) (int64, error)
	// GetHeader devuelve nil, nil si no existe. operationType y wait son filtros opcionales.
	GetHeader(ctx context.Context, correlative int64, operationType *entity.OperationType, wait *bool) (*entity.InventoryOperation, error)
	// LockHeader como GetHeader sin filtros, con bloqueo de fila (SELECT ... FOR UPDATE).
	LockHeader(ctx context.Context, correlative int64) (*entity.InventoryOperation, error)
	// AppendLines asigna números de línea a partir de LastLine de la cabecera.
	AppendLines(ctx context.Context, correlative int64, lines []*entity.InventoryOperationLine) error
	// UpdateLineAmount compara el código sin distinguir mayúsculas; devuelve filas afectadas.
	UpdateLineAmount(ctx context.Context, correlative int64, productCode string, amount decimal.Decimal) (int64, error)
	DeleteLine(ctx context.Context, correlative int64, productCode string) (int64, error)
	// GetLines ordenadas por número de línea; locationStore != "" agrega la ubicación configurada allí.
	GetLines(ctx context.Context, correlative int64, locationStore string) ([]*entity.InventoryOperationLine, error)
	SetStatusMarker(ctx context.Context, correlative int64, text string) error
	// TransitionState cambia de estado solo si el actual es from; false si otro llamador se adelantó.
	TransitionState(ctx context.Context, correlative int64, from, to entity.OperationState, marker string, differences bool) (bool, error)
	// RefreshTotal recalcula el total denormalizado desde las líneas.
	RefreshTotal(ctx context.Context, correlative int64) error
	// DocumentNumber número de documento legible derivado del correlativo (cálculo del almacén).
	DocumentNumber(ctx context.Context, correlative int64) (string, error)
	SetDocumentNumber(ctx context.Context, correlative int64, documentNo string) error
	// DeleteOperation borra líneas y luego la cabecera; devuelve false si no existía.
	DeleteOperation(ctx context.Context, correlative int64) (bool, error)
}
