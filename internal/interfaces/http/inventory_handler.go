package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repostock/internal/application/dto"
	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
)

// InventoryHandler maneja el ciclo de vida de las operaciones de inventario (traslados).
type InventoryHandler struct {
	workflow      *inventory.WorkflowUseCase
	replenishment *inventory.ReplenishmentUseCase
	defaultOrigin string
}

// NewInventoryHandler construye el handler. defaultOrigin se usa cuando la petición no trae origen.
func NewInventoryHandler(workflow *inventory.WorkflowUseCase, replenishment *inventory.ReplenishmentUseCase, defaultOrigin string) *InventoryHandler {
	return &InventoryHandler{workflow: workflow, replenishment: replenishment, defaultOrigin: defaultOrigin}
}

// Create godoc
// @Summary      Crear operación en borrador
// @Description  Crea la cabecera y sus líneas en una sola transacción. Con from_proposal=true y sin
//
//	líneas, las líneas salen de la propuesta de reposición origen/destino.
//
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOperationRequest  true  "origin_store, destination_store, user_code, lines"
// @Success      201   {object}  dto.CreateOperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/operations [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOperationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.OriginStore == "" {
		in.OriginStore = h.defaultOrigin
	}

	lines := make([]inventory.DraftLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.DraftLineInput{ProductCode: l.ProductCode, Amount: l.Amount})
	}
	if len(lines) == 0 && in.FromProposal {
		candidates, err := h.replenishment.Propose(c.UserContext(), inventory.ProposeInput{
			Origin:      in.OriginStore,
			Destination: in.DestinationStore,
			Department:  in.Department,
			ProductCode: in.ProductCode,
		})
		if err != nil {
			return writeError(c, err)
		}
		lines = inventory.DraftLinesFromCandidates(candidates)
	}

	input := inventory.CreateDraftInput{
		OriginStore:      in.OriginStore,
		DestinationStore: in.DestinationStore,
		UserCode:         in.UserCode,
		Comments:         in.Comments,
		Lines:            lines,
	}
	if in.EmissionDate != nil {
		input.EmissionDate = *in.EmissionDate
	}
	correlative, err := h.workflow.CreateDraft(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateOperationResponse{
		Correlative: correlative,
		State:       string(entity.StateDraft),
		Lines:       len(lines),
	})
}

// Get godoc
// @Summary      Obtener operación
// @Tags         operations
// @Produce      json
// @Param        correlative     path   int     true   "Correlativo"
// @Param        location_store  query  string  false  "Tienda cuya ubicación se agrega a cada línea"
// @Param        wait            query  bool    false  "Filtrar por bandera wait"
// @Success      200  {object}  dto.OperationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	q := inventory.ReadQuery{LocationStore: c.Query("location_store")}
	if raw := c.Query("wait"); raw != "" {
		wait, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, domain.NewValidationError("wait", "debe ser true o false"))
		}
		q.Wait = &wait
	}
	view, err := h.workflow.GetOperation(c.UserContext(), correlative, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOperationResponse(view))
}

// Delete godoc
// @Summary      Eliminar operación (purga administrativa)
// @Tags         operations
// @Produce      json
// @Param        correlative  path  int  true  "Correlativo"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.workflow.DeleteOperation(c.UserContext(), correlative); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "operación eliminada"})
}

// AddLine godoc
// @Summary      Agregar línea
// @Description  Valida el stock disponible en la tienda de origen.
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        correlative  path  int                       true  "Correlativo"
// @Param        body         body  dto.OperationLineRequest  true  "product_code, amount"
// @Success      201  {object}  dto.OperationLineResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/lines [post]
func (h *InventoryHandler) AddLine(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.OperationLineRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	line, err := h.workflow.AddLine(c.UserContext(), correlative, in.ProductCode, in.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLineResponse(line))
}

// UpdateCount godoc
// @Summary      Actualizar cantidad contada
// @Description  amount = 0 elimina la línea.
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        correlative  path  int                     true  "Correlativo"
// @Param        code         path  string                  true  "Código de producto"
// @Param        body         body  dto.UpdateCountRequest  true  "amount"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/lines/{code} [put]
func (h *InventoryHandler) UpdateCount(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.workflow.UpdateCount(c.UserContext(), correlative, c.Params("code"), in.Amount); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "cantidad actualizada"})
}

// RemoveLine godoc
// @Summary      Eliminar línea
// @Tags         operations
// @Produce      json
// @Param        correlative  path  int     true  "Correlativo"
// @Param        code         path  string  true  "Código de producto"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/lines/{code} [delete]
func (h *InventoryHandler) RemoveLine(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.workflow.RemoveLine(c.UserContext(), correlative, c.Params("code")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "línea eliminada"})
}

// Confirm godoc
// @Summary      Confirmar operación (chequeo en origen)
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        correlative  path  int                 true  "Correlativo"
// @Param        body         body  dto.ConfirmRequest  true  "counted_codes"
// @Success      200  {object}  dto.ConfirmResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/confirm [post]
func (h *InventoryHandler) Confirm(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ConfirmRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.workflow.Confirm(c.UserContext(), correlative, in.CountedCodes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ConfirmResponse{
		Correlative: res.Correlative,
		DocumentNo:  res.DocumentNo,
		State:       string(entity.StateConfirmed),
	})
}

// Receive godoc
// @Summary      Marcar traslado en tránsito
// @Description  Lo invoca el proceso de despacho. Repetirlo no tiene efecto.
// @Tags         operations
// @Produce      json
// @Param        correlative  path  int  true  "Correlativo"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/receive [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.workflow.Receive(c.UserContext(), correlative); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "traslado en tránsito"})
}

// ReceptionConfirm godoc
// @Summary      Chequeo en recepción
// @Description  Exige los mismos códigos que las líneas y una cantidad por código.
//
//	Las diferencias se informan en la respuesta pero no bloquean.
//
// @Tags         operations
// @Accept       json
// @Produce      json
// @Param        correlative  path  int                          true  "Correlativo"
// @Param        body         body  dto.ReceptionConfirmRequest  true  "counted_codes, counts"
// @Success      200  {object}  dto.ReceptionConfirmResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/reception/confirm [post]
func (h *InventoryHandler) ReceptionConfirm(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReceptionConfirmRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.workflow.ReceptionConfirm(c.UserContext(), correlative, in.CountedCodes, in.Counts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReceptionConfirmResponse{
		Correlative: res.Correlative,
		DocumentNo:  res.DocumentNo,
		State:       string(entity.StateReceived),
		Differences: res.Differences,
	})
}

// AvailableStock godoc
// @Summary      Stock disponible en origen para un producto de la operación
// @Tags         operations
// @Produce      json
// @Param        correlative  path  int     true  "Correlativo"
// @Param        code         path  string  true  "Código de producto (principal o alterno)"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/operations/{correlative}/stock/{code} [get]
func (h *InventoryHandler) AvailableStock(c *fiber.Ctx) error {
	correlative, err := correlativeParam(c)
	if err != nil {
		return writeError(c, err)
	}
	level, err := h.workflow.AvailableStock(c.UserContext(), correlative, c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockResponse{ProductCode: level.ProductCode, StoreCode: level.StoreCode, Quantity: level.Quantity})
}

func correlativeParam(c *fiber.Ctx) (int64, error) {
	n, err := strconv.ParseInt(c.Params("correlative"), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.NewValidationError("correlative", "debe ser un entero positivo")
	}
	return n, nil
}

func toOperationResponse(v *inventory.OperationView) dto.OperationResponse {
	h := v.Header
	out := dto.OperationResponse{
		Correlative:      h.Correlative,
		OperationType:    string(h.OperationType),
		State:            string(h.State),
		Wait:             h.Wait,
		StatusMarker:     h.StatusMarker,
		DocumentNo:       h.DocumentNo,
		Differences:      h.Differences,
		EmissionDate:     h.EmissionDate.In(time.UTC),
		OriginStore:      h.OriginStore,
		DestinationStore: h.DestinationStore,
		UserCode:         h.UserCode,
		Comments:         h.Comments,
		Total:            h.Total,
		Lines:            make([]dto.OperationLineResponse, 0, len(v.Lines)),
	}
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, toLineResponse(l))
	}
	return out
}

func toLineResponse(l *entity.InventoryOperationLine) dto.OperationLineResponse {
	return dto.OperationLineResponse{
		Line:                 l.Line,
		ProductCode:          l.ProductCode,
		Description:          l.Description,
		Amount:               l.Amount,
		FromStore:            l.FromStore,
		ToStore:              l.ToStore,
		Unit:                 l.Unit,
		UnitConversionFactor: l.UnitConversionFactor,
		Location:             l.Location,
	}
}
