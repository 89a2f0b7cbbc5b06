package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ repository.InventoryOperationRepository = (*InventoryOperationRepo)(nil)

// InventoryOperationRepo cabeceras y líneas en memoria.
type InventoryOperationRepo struct{ scope }

// NewInventoryOperationRepository repositorio sobre el estado confirmado.
func NewInventoryOperationRepository(db *Store) *InventoryOperationRepo {
	return &InventoryOperationRepo{scope{db: db}}
}

// CreateHeader asigna el siguiente correlativo.
func (r *InventoryOperationRepo) CreateHeader(ctx context.Context, op *entity.InventoryOperation) (int64, error) {
	var correlative int64
	err := r.with(ctx, func(d *dataset) error {
		d.nextCorrelative++
		correlative = d.nextCorrelative
		h := *op
		h.Correlative = correlative
		h.OperationType = h.OperationType.Canonical()
		// Sin estado explícito se comporta como una fila histórica.
		if h.State.Valid() {
			h.Wait = h.State.Wait()
		} else {
			h.State = inventory.StateFromLegacy(h.Wait, h.StatusMarker)
		}
		h.LastLine = 0
		d.ops[correlative] = h
		return nil
	})
	return correlative, err
}

// GetHeader nil, nil si no existe o no cumple los filtros.
func (r *InventoryOperationRepo) GetHeader(
	ctx context.Context,
	correlative int64,
	operationType *entity.OperationType,
	wait *bool,
) (*entity.InventoryOperation, error) {
	var out *entity.InventoryOperation
	err := r.with(ctx, func(d *dataset) error {
		h, ok := d.ops[correlative]
		if !ok {
			return nil
		}
		if operationType != nil && h.OperationType.Canonical() != operationType.Canonical() {
			return nil
		}
		if wait != nil && h.Wait != *wait {
			return nil
		}
		out = &h
		return nil
	})
	return out, err
}

// LockHeader la transacción en memoria ya es exclusiva.
func (r *InventoryOperationRepo) LockHeader(ctx context.Context, correlative int64) (*entity.InventoryOperation, error) {
	return r.GetHeader(ctx, correlative, nil, nil)
}

// AppendLines numera a partir de LastLine de la cabecera.
func (r *InventoryOperationRepo) AppendLines(ctx context.Context, correlative int64, lines []*entity.InventoryOperationLine) error {
	return r.with(ctx, func(d *dataset) error {
		h, ok := d.ops[correlative]
		if !ok {
			return missingHeader("append lines", correlative)
		}
		for _, l := range lines {
			h.LastLine++
			l.MainCorrelative = correlative
			l.Line = h.LastLine
			v := *l
			v.Location = ""
			d.lines[correlative] = append(d.lines[correlative], v)
		}
		d.ops[correlative] = h
		return nil
	})
}

// UpdateLineAmount compara códigos sin distinguir mayúsculas.
func (r *InventoryOperationRepo) UpdateLineAmount(ctx context.Context, correlative int64, productCode string, amount decimal.Decimal) (int64, error) {
	var n int64
	err := r.with(ctx, func(d *dataset) error {
		code := inventory.NormalizeCode(productCode)
		lines := d.lines[correlative]
		for i := range lines {
			if inventory.NormalizeCode(lines[i].ProductCode) == code {
				lines[i].Amount = amount
				n++
			}
		}
		return nil
	})
	return n, err
}

// DeleteLine elimina las líneas del producto; los números de línea no se reutilizan.
func (r *InventoryOperationRepo) DeleteLine(ctx context.Context, correlative int64, productCode string) (int64, error) {
	var n int64
	err := r.with(ctx, func(d *dataset) error {
		code := inventory.NormalizeCode(productCode)
		kept := d.lines[correlative][:0]
		for _, l := range d.lines[correlative] {
			if inventory.NormalizeCode(l.ProductCode) == code {
				n++
				continue
			}
			kept = append(kept, l)
		}
		d.lines[correlative] = kept
		return nil
	})
	return n, err
}

// GetLines copia de las líneas ordenadas por número.
func (r *InventoryOperationRepo) GetLines(ctx context.Context, correlative int64, locationStore string) ([]*entity.InventoryOperationLine, error) {
	var out []*entity.InventoryOperationLine
	err := r.with(ctx, func(d *dataset) error {
		for _, l := range d.lines[correlative] {
			if locationStore != "" {
				if p, ok := d.params[key{inventory.NormalizeCode(l.ProductCode), inventory.NormalizeCode(locationStore)}]; ok {
					l.Location = p.Location
				}
			}
			out = append(out, &l)
		}
		return nil
	})
	return out, err
}

// SetStatusMarker sobrescribe el texto de estado.
func (r *InventoryOperationRepo) SetStatusMarker(ctx context.Context, correlative int64, text string) error {
	return r.update(ctx, "update status marker", correlative, func(h *entity.InventoryOperation) {
		h.StatusMarker = text
	})
}

// TransitionState compare-and-set sobre el estado.
func (r *InventoryOperationRepo) TransitionState(
	ctx context.Context,
	correlative int64,
	from, to entity.OperationState,
	marker string,
	differences bool,
) (bool, error) {
	var ok bool
	err := r.with(ctx, func(d *dataset) error {
		h, exists := d.ops[correlative]
		if !exists || h.State != from {
			return nil
		}
		h.State, h.Wait, h.StatusMarker, h.Differences = to, to.Wait(), marker, differences
		h.UpdatedAt = time.Now()
		d.ops[correlative] = h
		ok = true
		return nil
	})
	return ok, err
}

// RefreshTotal recalcula el total desde las líneas.
func (r *InventoryOperationRepo) RefreshTotal(ctx context.Context, correlative int64) error {
	return r.with(ctx, func(d *dataset) error {
		h, ok := d.ops[correlative]
		if !ok {
			return missingHeader("refresh operation total", correlative)
		}
		total := decimal.Zero
		for _, l := range d.lines[correlative] {
			total = total.Add(l.Amount)
		}
		h.Total = total
		h.UpdatedAt = time.Now()
		d.ops[correlative] = h
		return nil
	})
}

// DocumentNumber mismo formato que la función inventory_operation_document_no.
func (r *InventoryOperationRepo) DocumentNumber(ctx context.Context, correlative int64) (string, error) {
	var docNo string
	err := r.with(ctx, func(d *dataset) error {
		if _, ok := d.ops[correlative]; ok {
			docNo = fmt.Sprintf("TR-%08d", correlative)
		}
		return nil
	})
	return docNo, err
}

// SetDocumentNumber guarda el número de documento.
func (r *InventoryOperationRepo) SetDocumentNumber(ctx context.Context, correlative int64, documentNo string) error {
	return r.update(ctx, "update document number", correlative, func(h *entity.InventoryOperation) {
		h.DocumentNo = documentNo
	})
}

// DeleteOperation borra líneas y cabecera.
func (r *InventoryOperationRepo) DeleteOperation(ctx context.Context, correlative int64) (bool, error) {
	var deleted bool
	err := r.with(ctx, func(d *dataset) error {
		delete(d.lines, correlative)
		if _, ok := d.ops[correlative]; ok {
			delete(d.ops, correlative)
			deleted = true
		}
		return nil
	})
	return deleted, err
}

func (r *InventoryOperationRepo) update(ctx context.Context, op string, correlative int64, fn func(h *entity.InventoryOperation)) error {
	return r.with(ctx, func(d *dataset) error {
		h, ok := d.ops[correlative]
		if !ok {
			return missingHeader(op, correlative)
		}
		fn(&h)
		h.UpdatedAt = time.Now()
		d.ops[correlative] = h
		return nil
	})
}
