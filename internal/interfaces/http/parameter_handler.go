package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repostock/internal/application/dto"
	"github.com/jhoicas/repostock/internal/application/inventory"
)

// ParameterHandler mínimos/máximos por tienda y consulta de stock puntual.
type ParameterHandler struct {
	uc     *inventory.ParameterUseCase
	reader *inventory.StockSnapshotReader
}

// NewParameterHandler construye el handler.
func NewParameterHandler(uc *inventory.ParameterUseCase, reader *inventory.StockSnapshotReader) *ParameterHandler {
	return &ParameterHandler{uc: uc, reader: reader}
}

// Get godoc
// @Summary      Parámetros de reposición
// @Description  Sin configuración devuelve mínimo y máximo en cero con configured=false.
// @Tags         parameters
// @Produce      json
// @Param        store    path  string  true  "Tienda"
// @Param        product  path  string  true  "Producto"
// @Success      200  {object}  dto.ParameterResponse
// @Router       /api/inventory/parameters/{store}/{product} [get]
func (h *ParameterHandler) Get(c *fiber.Ctx) error {
	view, err := h.uc.Get(c.UserContext(), c.Params("store"), c.Params("product"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ParameterResponse{
		ProductCode:  view.ProductCode,
		StoreCode:    view.StoreCode,
		MinimalStock: view.MinimalStock,
		MaximumStock: view.MaximumStock,
		Location:     view.Location,
		Configured:   view.Configured,
	})
}

// Put godoc
// @Summary      Configurar mínimo y máximo
// @Tags         parameters
// @Accept       json
// @Produce      json
// @Param        store    path  string                true  "Tienda"
// @Param        product  path  string                true  "Producto (principal o alterno)"
// @Param        body     body  dto.ParameterRequest  true  "minimal_stock, maximum_stock, location"
// @Success      200  {object}  dto.ParameterResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/parameters/{store}/{product} [put]
func (h *ParameterHandler) Put(c *fiber.Ctx) error {
	var in dto.ParameterRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	p, err := h.uc.Upsert(c.UserContext(), inventory.UpsertParameterInput{
		StoreCode:    c.Params("store"),
		ProductCode:  c.Params("product"),
		MinimalStock: in.MinimalStock,
		MaximumStock: in.MaximumStock,
		Location:     in.Location,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ParameterResponse{
		ProductCode:  p.ProductCode,
		StoreCode:    p.StoreCode,
		MinimalStock: p.MinimalStock,
		MaximumStock: p.MaximumStock,
		Location:     p.Location,
		Configured:   true,
	})
}

// Stock godoc
// @Summary      Stock actual de un producto en una tienda
// @Tags         stock
// @Produce      json
// @Param        store    path  string  true  "Tienda"
// @Param        product  path  string  true  "Producto"
// @Success      200  {object}  dto.StockResponse
// @Router       /api/inventory/stock/{store}/{product} [get]
func (h *ParameterHandler) Stock(c *fiber.Ctx) error {
	level, err := h.reader.Read(c.UserContext(), c.Params("product"), c.Params("store"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockResponse{ProductCode: level.ProductCode, StoreCode: level.StoreCode, Quantity: level.Quantity})
}
