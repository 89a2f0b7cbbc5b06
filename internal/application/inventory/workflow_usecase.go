package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/domain/repository"
	"github.com/jhoicas/repostock/pkg/logger"
)

// WorkflowUseCase máquina de estados de las operaciones de inventario:
// DRAFT -> CONFIRMED -> IN_TRANSIT -> RECEIVED.
//
// Cada mutación toma el candado de la operación, abre una transacción y bloquea la cabecera
// (SELECT ... FOR UPDATE) antes de leer el estado, de modo que el chequeo del conjunto contado
// y la escritura del estado quedan en la misma frontera de aislamiento.
type WorkflowUseCase struct {
	txRunner  TxRunner
	opRepo    repository.InventoryOperationRepository
	storeRepo repository.StoreRepository
	locker    Locker
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewWorkflowUseCase construye el caso de uso. locker y publisher son opcionales.
func NewWorkflowUseCase(
	txRunner TxRunner,
	opRepo repository.InventoryOperationRepository,
	storeRepo repository.StoreRepository,
	locker Locker,
	publisher EventPublisher,
	log *logger.Logger,
) *WorkflowUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WorkflowUseCase{
		txRunner:  txRunner,
		opRepo:    opRepo,
		storeRepo: storeRepo,
		locker:    locker,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// DraftLineInput línea propuesta para un borrador.
type DraftLineInput struct {
	ProductCode string
	Amount      decimal.Decimal
}

// CreateDraftInput datos para crear una operación en DRAFT.
type CreateDraftInput struct {
	OriginStore      string
	DestinationStore string
	UserCode         string
	Comments         string
	EmissionDate     time.Time
	Lines            []DraftLineInput
}

// DraftLinesFromCandidates convierte la propuesta de reposición en líneas de borrador.
func DraftLinesFromCandidates(candidates []inventory.Candidate) []DraftLineInput {
	lines := make([]DraftLineInput, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, DraftLineInput{ProductCode: c.ProductCode, Amount: c.ToTransfer})
	}
	return lines
}

// ConfirmResult resultado de Confirm.
type ConfirmResult struct {
	Correlative int64
	DocumentNo  string
}

// ReceptionResult resultado de ReceptionConfirm.
type ReceptionResult struct {
	Correlative int64
	DocumentNo  string
	Differences bool
}

// OperationView cabecera y líneas para lectura (reportes, pantallas).
type OperationView struct {
	Header *entity.InventoryOperation
	Lines  []*entity.InventoryOperationLine
}

// ReadQuery filtros opcionales de lectura.
type ReadQuery struct {
	LocationStore string // tienda cuya ubicación configurada se agrega a cada línea
	Wait          *bool
}

type txRepos struct {
	ops      repository.InventoryOperationRepository
	stock    repository.StockRepository
	products repository.ProductRepository
}

// CreateDraft crea la cabecera y todas las líneas en una sola transacción.
func (uc *WorkflowUseCase) CreateDraft(ctx context.Context, in CreateDraftInput) (int64, error) {
	origin := inventory.NormalizeCode(in.OriginStore)
	destination := inventory.NormalizeCode(in.DestinationStore)
	switch {
	case origin == "":
		return 0, domain.NewValidationError("origin_store", "es obligatorio")
	case destination == "":
		return 0, domain.NewValidationError("destination_store", "es obligatorio")
	case origin == destination:
		return 0, domain.NewValidationError("destination_store", "debe ser distinta del origen")
	case len(in.Lines) == 0:
		return 0, domain.NewValidationError("lines", "la operación necesita al menos una línea")
	}
	seen := make(map[string]struct{}, len(in.Lines))
	for i, l := range in.Lines {
		code := inventory.NormalizeCode(l.ProductCode)
		if code == "" {
			return 0, domain.NewValidationError(fmt.Sprintf("lines[%d].product_code", i), "es obligatorio")
		}
		if !l.Amount.IsPositive() {
			return 0, domain.NewValidationError(fmt.Sprintf("lines[%d].amount", i), "debe ser mayor que cero")
		}
		if _, dup := seen[code]; dup {
			return 0, domain.NewValidationError(fmt.Sprintf("lines[%d].product_code", i), "repetido")
		}
		seen[code] = struct{}{}
	}
	if err := requireStores(ctx, uc.storeRepo, origin, destination); err != nil {
		return 0, err
	}

	now := uc.now()
	emission := in.EmissionDate
	if emission.IsZero() {
		emission = now
	}

	var header *entity.InventoryOperation
	err := uc.txRunner.Run(ctx, func(
		opRepo repository.InventoryOperationRepository,
		_ repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		lines := make([]*entity.InventoryOperationLine, 0, len(in.Lines))
		total := decimal.Zero
		resolvedSeen := make(map[string]struct{}, len(in.Lines))
		for _, l := range in.Lines {
			product, err := resolveProduct(ctx, productRepo, l.ProductCode)
			if err != nil {
				return err
			}
			if _, dup := resolvedSeen[product.Code]; dup {
				return domain.NewValidationError("lines", fmt.Sprintf("el producto %s aparece más de una vez", product.Code))
			}
			resolvedSeen[product.Code] = struct{}{}
			lines = append(lines, newLine(product, l.Amount, origin, destination))
			total = total.Add(l.Amount)
		}

		header = &entity.InventoryOperation{
			OperationType:    entity.OperationTypeTransfer,
			State:            entity.StateDraft,
			Wait:             entity.StateDraft.Wait(),
			StatusMarker:     inventory.StatusMarker(entity.StateDraft, "", false),
			EmissionDate:     emission,
			OriginStore:      origin,
			DestinationStore: destination,
			UserCode:         strings.TrimSpace(in.UserCode),
			Comments:         strings.TrimSpace(in.Comments),
			Total:            total,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		correlative, err := opRepo.CreateHeader(ctx, header)
		if err != nil {
			return err
		}
		header.Correlative = correlative
		return opRepo.AppendLines(ctx, correlative, lines)
	})
	if err != nil {
		return 0, err
	}

	uc.log.Info().
		Int64("correlative", header.Correlative).
		Str("origin", origin).
		Str("destination", destination).
		Int("lines", len(in.Lines)).
		Msg("operación creada en borrador")
	uc.publish(ctx, EventOperationCreated, header)
	return header.Correlative, nil
}

// UpdateCount registra la cantidad contada de una línea. Cero elimina la línea.
func (uc *WorkflowUseCase) UpdateCount(ctx context.Context, correlative int64, productCode string, amount decimal.Decimal) error {
	code := inventory.NormalizeCode(productCode)
	if code == "" {
		return domain.NewValidationError("product_code", "es obligatorio")
	}
	if amount.IsNegative() {
		return domain.NewValidationError("amount", "no puede ser negativo")
	}
	return uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		if err := requireEditable(op); err != nil {
			return err
		}
		var (
			n   int64
			err error
		)
		if amount.IsZero() {
			n, err = r.ops.DeleteLine(ctx, correlative, code)
		} else {
			n, err = r.ops.UpdateLineAmount(ctx, correlative, code, amount)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return lineNotFound(correlative, code)
		}
		return r.ops.RefreshTotal(ctx, correlative)
	})
}

// AddLine agrega un producto a la operación validando el stock disponible en origen,
// leído con bloqueo dentro de la misma transacción que la inserción.
func (uc *WorkflowUseCase) AddLine(ctx context.Context, correlative int64, productCode string, qty decimal.Decimal) (*entity.InventoryOperationLine, error) {
	if inventory.NormalizeCode(productCode) == "" {
		return nil, domain.NewValidationError("product_code", "es obligatorio")
	}
	if !qty.IsPositive() {
		return nil, domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	var added *entity.InventoryOperationLine
	err := uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		if err := requireEditable(op); err != nil {
			return err
		}
		product, err := resolveProduct(ctx, r.products, productCode)
		if err != nil {
			return err
		}
		lines, err := r.ops.GetLines(ctx, correlative, "")
		if err != nil {
			return err
		}
		for _, l := range lines {
			if inventory.NormalizeCode(l.ProductCode) == product.Code {
				return domain.NewValidationError("product_code", fmt.Sprintf("%s ya está en la operación", product.Code))
			}
		}

		stock, err := r.stock.GetForUpdate(ctx, product.Code, op.OriginStore)
		if err != nil {
			return err
		}
		if qty.GreaterThan(stock.Quantity.Add(inventory.CountTolerance)) {
			return &domain.InsufficientStockError{
				ProductCode: product.Code,
				StoreCode:   op.OriginStore,
				Requested:   qty,
				Available:   stock.Quantity,
			}
		}

		added = newLine(product, qty, op.OriginStore, op.DestinationStore)
		if err := r.ops.AppendLines(ctx, correlative, []*entity.InventoryOperationLine{added}); err != nil {
			return err
		}
		return r.ops.RefreshTotal(ctx, correlative)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveLine elimina la línea del producto. Quitar la última línea es válido.
func (uc *WorkflowUseCase) RemoveLine(ctx context.Context, correlative int64, productCode string) error {
	code := inventory.NormalizeCode(productCode)
	if code == "" {
		return domain.NewValidationError("product_code", "es obligatorio")
	}
	return uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		if err := requireEditable(op); err != nil {
			return err
		}
		n, err := r.ops.DeleteLine(ctx, correlative, code)
		if err != nil {
			return err
		}
		if n == 0 {
			return lineNotFound(correlative, code)
		}
		return r.ops.RefreshTotal(ctx, correlative)
	})
}

// Confirm pasa de DRAFT a CONFIRMED si los códigos contados son exactamente los de las líneas.
func (uc *WorkflowUseCase) Confirm(ctx context.Context, correlative int64, countedCodes []string) (*ConfirmResult, error) {
	var header *entity.InventoryOperation
	err := uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		if op.State != entity.StateDraft {
			return fmt.Errorf("operación %d en %s: %w", correlative, op.State, domain.ErrAlreadyValidated)
		}
		lines, err := r.ops.GetLines(ctx, correlative, "")
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("operación %d: %w", correlative, domain.ErrNoDetails)
		}
		if err := checkCodeSet(lines, countedCodes); err != nil {
			return err
		}

		docNo, err := r.ops.DocumentNumber(ctx, correlative)
		if err != nil {
			return err
		}
		if err := r.ops.SetDocumentNumber(ctx, correlative, docNo); err != nil {
			return err
		}
		marker := inventory.StatusMarker(entity.StateConfirmed, docNo, false)
		ok, err := r.ops.TransitionState(ctx, correlative, entity.StateDraft, entity.StateConfirmed, marker, false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("operación %d: %w", correlative, domain.ErrAlreadyValidated)
		}
		op.State, op.Wait, op.StatusMarker, op.DocumentNo = entity.StateConfirmed, true, marker, docNo
		header = op
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Int64("correlative", correlative).Str("document_no", header.DocumentNo).Msg("operación confirmada")
	uc.publish(ctx, EventOperationConfirmed, header)
	return &ConfirmResult{Correlative: correlative, DocumentNo: header.DocumentNo}, nil
}

// Receive marca el traslado como materializado (CONFIRMED -> IN_TRANSIT). Lo invoca el proceso
// externo de despacho; repetirlo sobre una operación ya en tránsito o recibida no tiene efecto.
func (uc *WorkflowUseCase) Receive(ctx context.Context, correlative int64) error {
	var header *entity.InventoryOperation
	err := uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		switch op.State {
		case entity.StateInTransit, entity.StateReceived:
			return nil
		case entity.StateDraft:
			return fmt.Errorf("operación %d sin confirmar: %w", correlative, domain.ErrInvalidState)
		}
		marker := inventory.StatusMarker(entity.StateInTransit, op.DocumentNo, false)
		ok, err := r.ops.TransitionState(ctx, correlative, entity.StateConfirmed, entity.StateInTransit, marker, false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("operación %d: %w", correlative, domain.ErrInvalidState)
		}
		op.State, op.Wait, op.StatusMarker = entity.StateInTransit, false, marker
		header = op
		return nil
	})
	if err != nil {
		return err
	}
	if header != nil {
		uc.log.Info().Int64("correlative", correlative).Msg("traslado en tránsito")
		uc.publish(ctx, EventOperationInTransit, header)
	}
	return nil
}

// ReceptionConfirm registra el chequeo en recepción. Exige el mismo conjunto de códigos que Confirm
// y una cantidad contada por código; las diferencias se informan pero no bloquean.
// Puede repetirse: cada llamada sobrescribe el texto de estado y el flag de diferencias.
func (uc *WorkflowUseCase) ReceptionConfirm(
	ctx context.Context,
	correlative int64,
	countedCodes []string,
	counts map[string]decimal.Decimal,
) (*ReceptionResult, error) {
	normalized := inventory.NormalizeCounts(counts)
	for code, v := range normalized {
		if v.IsNegative() {
			return nil, domain.NewValidationError("counts."+code, "no puede ser negativo")
		}
	}

	var header *entity.InventoryOperation
	err := uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		if op.State != entity.StateInTransit && op.State != entity.StateReceived {
			return fmt.Errorf("operación %d en %s: %w", correlative, op.State, domain.ErrInvalidState)
		}
		lines, err := r.ops.GetLines(ctx, correlative, "")
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("operación %d: %w", correlative, domain.ErrNoDetails)
		}
		if err := checkCodeSet(lines, countedCodes); err != nil {
			return err
		}
		if missing := inventory.MissingCounts(lines, normalized); len(missing) > 0 {
			return &domain.IncompleteCountError{
				Expected: inventory.LineCodes(lines),
				Received: inventory.CodeSet(countedCodes),
				Missing:  missing,
			}
		}

		differences := inventory.HasDifferences(lines, normalized)
		marker := inventory.StatusMarker(entity.StateReceived, op.DocumentNo, differences)
		ok, err := r.ops.TransitionState(ctx, correlative, op.State, entity.StateReceived, marker, differences)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("operación %d: %w", correlative, domain.ErrInvalidState)
		}
		op.State, op.Wait, op.StatusMarker, op.Differences = entity.StateReceived, false, marker, differences
		header = op
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("correlative", correlative).
		Bool("differences", header.Differences).
		Msg("recepción chequeada")
	uc.publish(ctx, EventOperationReceived, header)
	return &ReceptionResult{Correlative: correlative, DocumentNo: header.DocumentNo, Differences: header.Differences}, nil
}

// GetOperation cabecera y líneas de una operación.
func (uc *WorkflowUseCase) GetOperation(ctx context.Context, correlative int64, q ReadQuery) (*OperationView, error) {
	opType := entity.OperationTypeTransfer
	header, err := uc.opRepo.GetHeader(ctx, correlative, &opType, q.Wait)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, operationNotFound(correlative)
	}
	lines, err := uc.opRepo.GetLines(ctx, correlative, inventory.NormalizeCode(q.LocationStore))
	if err != nil {
		return nil, err
	}
	return &OperationView{Header: header, Lines: lines}, nil
}

// AvailableStock stock actual en la tienda de origen de la operación para el producto indicado.
func (uc *WorkflowUseCase) AvailableStock(ctx context.Context, correlative int64, productCode string) (*entity.StockLevel, error) {
	var level *entity.StockLevel
	err := uc.txRunner.Run(ctx, func(
		opRepo repository.InventoryOperationRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		header, err := opRepo.GetHeader(ctx, correlative, nil, nil)
		if err != nil {
			return err
		}
		if header == nil {
			return operationNotFound(correlative)
		}
		product, err := resolveProduct(ctx, productRepo, productCode)
		if err != nil {
			return err
		}
		level, err = stockRepo.Get(ctx, product.Code, header.OriginStore)
		return err
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// DeleteOperation purga administrativa: borra las líneas y luego la cabecera.
func (uc *WorkflowUseCase) DeleteOperation(ctx context.Context, correlative int64) error {
	var header *entity.InventoryOperation
	err := uc.mutate(ctx, correlative, func(r txRepos, op *entity.InventoryOperation) error {
		deleted, err := r.ops.DeleteOperation(ctx, correlative)
		if err != nil {
			return err
		}
		if !deleted {
			return operationNotFound(correlative)
		}
		header = op
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Warn().Int64("correlative", correlative).Msg("operación eliminada")
	uc.publish(ctx, EventOperationDeleted, header)
	return nil
}

// mutate serializa por correlativo (candado + transacción + bloqueo de cabecera) y ejecuta fn.
func (uc *WorkflowUseCase) mutate(ctx context.Context, correlative int64, fn func(r txRepos, op *entity.InventoryOperation) error) error {
	if correlative <= 0 {
		return domain.NewValidationError("correlative", "debe ser positivo")
	}
	if uc.locker != nil {
		release, err := uc.locker.Acquire(ctx, operationLockKey(correlative))
		if err != nil {
			return err
		}
		defer release()
	}
	return uc.txRunner.Run(ctx, func(
		opRepo repository.InventoryOperationRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		op, err := opRepo.LockHeader(ctx, correlative)
		if err != nil {
			return err
		}
		if op == nil {
			return operationNotFound(correlative)
		}
		// Filas históricas: el número de documento solo existe dentro del texto libre.
		if op.DocumentNo == "" && op.State != entity.StateDraft {
			if docNo := inventory.DocumentNoFromMarker(op.StatusMarker); docNo != "" {
				if err := opRepo.SetDocumentNumber(ctx, correlative, docNo); err != nil {
					return err
				}
				op.DocumentNo = docNo
			}
		}
		// El texto libre se reemplaza por el derivado del estado.
		if want := inventory.StatusMarker(op.State, op.DocumentNo, op.Differences); op.StatusMarker != want {
			if err := opRepo.SetStatusMarker(ctx, correlative, want); err != nil {
				return err
			}
			op.StatusMarker = want
		}
		return fn(txRepos{ops: opRepo, stock: stockRepo, products: productRepo}, op)
	})
}

func (uc *WorkflowUseCase) publish(ctx context.Context, eventType string, op *entity.InventoryOperation) {
	ev := OperationEvent{
		Type:             eventType,
		Correlative:      op.Correlative,
		State:            string(op.State),
		DocumentNo:       op.DocumentNo,
		OriginStore:      op.OriginStore,
		DestinationStore: op.DestinationStore,
		Differences:      op.Differences,
		OccurredAt:       uc.now(),
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Int64("correlative", op.Correlative).Msg("publicar evento")
	}
}

func operationLockKey(correlative int64) string {
	return fmt.Sprintf("lock:inventory-operation:%d", correlative)
}

func requireEditable(op *entity.InventoryOperation) error {
	if inventory.CanEditLines(op.State) {
		return nil
	}
	return fmt.Errorf("operación %d en %s: %w", op.Correlative, op.State, domain.ErrAlreadyValidated)
}

func checkCodeSet(lines []*entity.InventoryOperationLine, counted []string) error {
	expected := inventory.LineCodes(lines)
	received := inventory.CodeSet(counted)
	if !inventory.SameCodeSet(expected, received) {
		return &domain.IncompleteCountError{Expected: expected, Received: received}
	}
	return nil
}

// resolveProduct acepta el código principal o uno alterno.
func resolveProduct(ctx context.Context, productRepo repository.ProductRepository, code string) (*entity.Product, error) {
	normalized := inventory.NormalizeCode(code)
	main, err := productRepo.ResolveCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if main == "" {
		return nil, fmt.Errorf("producto %s: %w", normalized, domain.ErrNotFound)
	}
	product, err := productRepo.GetByCode(ctx, main)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", main, domain.ErrNotFound)
	}
	return product, nil
}

func newLine(p *entity.Product, amount decimal.Decimal, from, to string) *entity.InventoryOperationLine {
	factor := p.UnitConversionFactor
	if factor.IsZero() {
		factor = decimal.NewFromInt(1)
	}
	return &entity.InventoryOperationLine{
		ProductCode:          p.Code,
		Description:          p.Description,
		Amount:               amount,
		FromStore:            from,
		ToStore:              to,
		Unit:                 p.Unit,
		UnitConversionFactor: factor,
	}
}

func operationNotFound(correlative int64) error {
	return fmt.Errorf("operación %d: %w", correlative, domain.ErrNotFound)
}

func lineNotFound(correlative int64, code string) error {
	return fmt.Errorf("línea %s de la operación %d: %w", code, correlative, domain.ErrNotFound)
}
