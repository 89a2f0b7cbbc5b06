package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ repository.InventoryOperationRepository = (*InventoryOperationRepo)(nil)

// InventoryOperationRepo cabeceras (inventory_operation) y líneas (inventory_operation_details).
type InventoryOperationRepo struct {
	q Querier
}

// NewInventoryOperationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryOperationRepository(q Querier) *InventoryOperationRepo {
	return &InventoryOperationRepo{q: q}
}

const headerColumns = `
	correlative, operation_type, state, wait, description, COALESCE(document_no, ''), differences,
	emission_date, origin_store, destination_store, user_code, comments, total, last_line,
	created_at, updated_at`

// CreateHeader inserta la cabecera; el correlativo lo asigna la secuencia.
func (r *InventoryOperationRepo) CreateHeader(ctx context.Context, op *entity.InventoryOperation) (int64, error) {
	query := `
		INSERT INTO inventory_operation (
			operation_type, state, wait, description, differences, emission_date,
			origin_store, destination_store, user_code, comments, total, last_line, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $12)
		RETURNING correlative`
	var correlative int64
	err := r.q.QueryRow(ctx, query,
		string(op.OperationType.Canonical()), string(op.State), op.State.Wait(), op.StatusMarker, op.Differences,
		op.EmissionDate, op.OriginStore, op.DestinationStore, op.UserCode, op.Comments, op.Total, op.CreatedAt,
	).Scan(&correlative)
	if err != nil {
		return 0, wrap("insert inventory operation", err)
	}
	return correlative, nil
}

// GetHeader obtiene la cabecera con filtros opcionales de tipo y wait.
func (r *InventoryOperationRepo) GetHeader(
	ctx context.Context,
	correlative int64,
	operationType *entity.OperationType,
	wait *bool,
) (*entity.InventoryOperation, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + headerColumns + " FROM inventory_operation WHERE correlative = $1")
	args := []any{correlative}
	if operationType != nil {
		// Las filas históricas ORDER_COLLECTION pertenecen al mismo ciclo de vida que TRANSFER.
		if operationType.Canonical() == entity.OperationTypeTransfer {
			args = append(args, []string{string(entity.OperationTypeTransfer), string(entity.OperationTypeOrderCollection)})
			fmt.Fprintf(&sb, " AND operation_type = ANY($%d)", len(args))
		} else {
			args = append(args, string(*operationType))
			fmt.Fprintf(&sb, " AND operation_type = $%d", len(args))
		}
	}
	if wait != nil {
		args = append(args, *wait)
		fmt.Fprintf(&sb, " AND wait = $%d", len(args))
	}
	return r.scanHeader(ctx, "get inventory operation", sb.String(), args...)
}

// LockHeader obtiene la cabecera con SELECT ... FOR UPDATE.
func (r *InventoryOperationRepo) LockHeader(ctx context.Context, correlative int64) (*entity.InventoryOperation, error) {
	query := "SELECT " + headerColumns + " FROM inventory_operation WHERE correlative = $1 FOR UPDATE"
	return r.scanHeader(ctx, "lock inventory operation", query, correlative)
}

func (r *InventoryOperationRepo) scanHeader(ctx context.Context, op, query string, args ...any) (*entity.InventoryOperation, error) {
	var (
		h      entity.InventoryOperation
		opType string
		state  *string
	)
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&h.Correlative, &opType, &state, &h.Wait, &h.StatusMarker, &h.DocumentNo, &h.Differences,
		&h.EmissionDate, &h.OriginStore, &h.DestinationStore, &h.UserCode, &h.Comments, &h.Total, &h.LastLine,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	h.OperationType = entity.OperationType(opType).Canonical()
	if state != nil && entity.OperationState(*state).Valid() {
		h.State = entity.OperationState(*state)
	} else {
		h.State = inventory.StateFromLegacy(h.Wait, h.StatusMarker)
	}
	return &h, nil
}

// AppendLines toma el siguiente número de línea de la cabecera por cada inserción.
// Debe ejecutarse dentro de la transacción del llamador.
func (r *InventoryOperationRepo) AppendLines(ctx context.Context, correlative int64, lines []*entity.InventoryOperationLine) error {
	next := `UPDATE inventory_operation SET last_line = last_line + 1 WHERE correlative = $1 RETURNING last_line`
	insert := `
		INSERT INTO inventory_operation_details (
			main_correlative, line, code_product, description, amount,
			from_store, to_store, unit, unit_conversion_factor
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, l := range lines {
		var line int
		if err := r.q.QueryRow(ctx, next, correlative).Scan(&line); err != nil {
			return wrap("next operation line", err)
		}
		if _, err := r.q.Exec(ctx, insert,
			correlative, line, l.ProductCode, l.Description, l.Amount,
			l.FromStore, l.ToStore, l.Unit, l.UnitConversionFactor,
		); err != nil {
			return wrap("insert operation line", err)
		}
		l.MainCorrelative = correlative
		l.Line = line
	}
	return nil
}

// UpdateLineAmount actualiza la cantidad de las líneas del producto (sin distinguir mayúsculas).
func (r *InventoryOperationRepo) UpdateLineAmount(ctx context.Context, correlative int64, productCode string, amount decimal.Decimal) (int64, error) {
	query := `
		UPDATE inventory_operation_details SET amount = $3
		WHERE main_correlative = $1 AND upper(code_product) = upper($2)`
	cmd, err := r.q.Exec(ctx, query, correlative, productCode, amount)
	if err != nil {
		return 0, wrap("update operation line", err)
	}
	return cmd.RowsAffected(), nil
}

// DeleteLine elimina las líneas del producto.
func (r *InventoryOperationRepo) DeleteLine(ctx context.Context, correlative int64, productCode string) (int64, error) {
	query := `DELETE FROM inventory_operation_details WHERE main_correlative = $1 AND upper(code_product) = upper($2)`
	cmd, err := r.q.Exec(ctx, query, correlative, productCode)
	if err != nil {
		return 0, wrap("delete operation line", err)
	}
	return cmd.RowsAffected(), nil
}

// GetLines devuelve las líneas por número; con locationStore agrega la ubicación configurada en esa tienda.
func (r *InventoryOperationRepo) GetLines(ctx context.Context, correlative int64, locationStore string) ([]*entity.InventoryOperationLine, error) {
	query := `
		SELECT d.main_correlative, d.line, d.code_product, d.description, d.amount,
		       d.from_store, d.to_store, d.unit, d.unit_conversion_factor, COALESCE(f.location, '')
		FROM inventory_operation_details d
		LEFT JOIN products_failures f ON f.code_product = d.code_product AND f.code_store = $2
		WHERE d.main_correlative = $1
		ORDER BY d.line`
	rows, err := r.q.Query(ctx, query, correlative, locationStore)
	if err != nil {
		return nil, wrap("list operation lines", err)
	}
	defer rows.Close()

	var list []*entity.InventoryOperationLine
	for rows.Next() {
		var l entity.InventoryOperationLine
		if err := rows.Scan(
			&l.MainCorrelative, &l.Line, &l.ProductCode, &l.Description, &l.Amount,
			&l.FromStore, &l.ToStore, &l.Unit, &l.UnitConversionFactor, &l.Location,
		); err != nil {
			return nil, wrap("scan operation line", err)
		}
		list = append(list, &l)
	}
	return list, wrap("list operation lines", rows.Err())
}

// SetStatusMarker sobrescribe el texto de estado.
func (r *InventoryOperationRepo) SetStatusMarker(ctx context.Context, correlative int64, text string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE inventory_operation SET description = $2, updated_at = now() WHERE correlative = $1`,
		correlative, text)
	return wrap("update status marker", err)
}

// TransitionState compare-and-set sobre el estado. Las filas sin estado (históricas) se aceptan
// porque el llamador ya las reconcilió bajo el bloqueo de la cabecera.
func (r *InventoryOperationRepo) TransitionState(
	ctx context.Context,
	correlative int64,
	from, to entity.OperationState,
	marker string,
	differences bool,
) (bool, error) {
	query := `
		UPDATE inventory_operation
		SET state = $3, wait = $4, description = $5, differences = $6, updated_at = now()
		WHERE correlative = $1 AND (state = $2 OR state IS NULL)`
	cmd, err := r.q.Exec(ctx, query, correlative, string(from), string(to), to.Wait(), marker, differences)
	if err != nil {
		return false, wrap("transition operation state", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// RefreshTotal recalcula el total desde las líneas.
func (r *InventoryOperationRepo) RefreshTotal(ctx context.Context, correlative int64) error {
	query := `
		UPDATE inventory_operation SET
			total = (SELECT COALESCE(SUM(amount), 0) FROM inventory_operation_details WHERE main_correlative = $1),
			updated_at = now()
		WHERE correlative = $1`
	_, err := r.q.Exec(ctx, query, correlative)
	return wrap("refresh operation total", err)
}

// DocumentNumber delega en la función inventory_operation_document_no del esquema.
func (r *InventoryOperationRepo) DocumentNumber(ctx context.Context, correlative int64) (string, error) {
	var docNo *string
	if err := r.q.QueryRow(ctx, `SELECT inventory_operation_document_no($1)`, correlative).Scan(&docNo); err != nil {
		return "", wrap("document number", err)
	}
	if docNo == nil {
		return "", nil
	}
	return *docNo, nil
}

// SetDocumentNumber guarda el número de documento en la cabecera.
func (r *InventoryOperationRepo) SetDocumentNumber(ctx context.Context, correlative int64, documentNo string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE inventory_operation SET document_no = $2, updated_at = now() WHERE correlative = $1`,
		correlative, documentNo)
	return wrap("update document number", err)
}

// DeleteOperation borra primero las líneas y después la cabecera.
func (r *InventoryOperationRepo) DeleteOperation(ctx context.Context, correlative int64) (bool, error) {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_operation_details WHERE main_correlative = $1`, correlative); err != nil {
		return false, wrap("delete operation lines", err)
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM inventory_operation WHERE correlative = $1`, correlative)
	if err != nil {
		return false, wrap("delete inventory operation", err)
	}
	return cmd.RowsAffected() > 0, nil
}
