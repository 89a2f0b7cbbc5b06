package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repostock/internal/application/dto"
	"github.com/jhoicas/repostock/internal/application/inventory"
	domaininv "github.com/jhoicas/repostock/internal/domain/inventory"
)

// ReplenishmentHandler propuesta de reposición entre tiendas.
type ReplenishmentHandler struct {
	uc            *inventory.ReplenishmentUseCase
	defaultOrigin string
}

// NewReplenishmentHandler construye el handler.
func NewReplenishmentHandler(uc *inventory.ReplenishmentUseCase, defaultOrigin string) *ReplenishmentHandler {
	return &ReplenishmentHandler{uc: uc, defaultOrigin: defaultOrigin}
}

// Proposal godoc
// @Summary      Propuesta de reposición
// @Description  Productos cuyo stock en destino está por debajo del mínimo y que el origen puede cubrir,
//
//	con la cantidad a trasladar min(stock origen, máximo - stock destino), ordenados por stock en destino.
//
// @Tags         replenishment
// @Produce      json
// @Param        origin       query  string  false  "Tienda de origen (por defecto DEFAULT_ORIGIN_STORE)"
// @Param        destination  query  string  true   "Tienda de destino"
// @Param        department   query  string  false  "Filtrar por departamento"
// @Param        product      query  string  false  "Filtrar por producto (código principal o alterno)"
// @Success      200  {object}  dto.ReplenishmentProposalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment/proposal [get]
func (h *ReplenishmentHandler) Proposal(c *fiber.Ctx) error {
	in := inventory.ProposeInput{
		Origin:      c.Query("origin", h.defaultOrigin),
		Destination: c.Query("destination"),
		Department:  c.Query("department"),
		ProductCode: c.Query("product"),
	}
	candidates, err := h.uc.Propose(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}

	out := dto.ReplenishmentProposalResponse{
		Origin:      domaininv.NormalizeCode(in.Origin),
		Destination: domaininv.NormalizeCode(in.Destination),
		Total:       len(candidates),
		Candidates:  make([]dto.ReplenishmentCandidateResponse, 0, len(candidates)),
	}
	for _, cand := range candidates {
		out.Candidates = append(out.Candidates, dto.ReplenishmentCandidateResponse{
			ProductCode:          cand.ProductCode,
			Description:          cand.Description,
			Department:           cand.Department,
			Unit:                 cand.Unit,
			UnitConversionFactor: cand.UnitConversionFactor,
			StockOrigin:          cand.StockOrigin,
			StockDestination:     cand.StockDestination,
			MinimalStock:         cand.MinimalStock,
			MaximumStock:         cand.MaximumStock,
			ToTransfer:           cand.ToTransfer,
			Location:             cand.Location,
		})
	}
	return c.JSON(out)
}

// Stores godoc
// @Summary      Listar tiendas
// @Tags         replenishment
// @Produce      json
// @Success      200  {array}  dto.StoreResponse
// @Router       /api/inventory/stores [get]
func (h *ReplenishmentHandler) Stores(c *fiber.Ctx) error {
	stores, err := h.uc.Stores(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, dto.StoreResponse{Code: s.Code, Name: s.Name, Address: s.Address})
	}
	return c.JSON(out)
}
