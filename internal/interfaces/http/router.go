package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repostock/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Workflow           *inventory.WorkflowUseCase
	Replenishment      *inventory.ReplenishmentUseCase
	Parameters         *inventory.ParameterUseCase
	Reader             *inventory.StockSnapshotReader
	DefaultOriginStore string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	inv := app.Group("/api/inventory")

	replenishmentHandler := NewReplenishmentHandler(deps.Replenishment, deps.DefaultOriginStore)
	inv.Get("/stores", replenishmentHandler.Stores)
	inv.Get("/replenishment/proposal", replenishmentHandler.Proposal)

	// Operaciones (traslados)
	ops := inv.Group("/operations")
	opHandler := NewInventoryHandler(deps.Workflow, deps.Replenishment, deps.DefaultOriginStore)
	ops.Post("/", opHandler.Create)
	ops.Get("/:correlative", opHandler.Get)
	ops.Delete("/:correlative", opHandler.Delete)
	ops.Post("/:correlative/lines", opHandler.AddLine)
	ops.Put("/:correlative/lines/:code", opHandler.UpdateCount)
	ops.Delete("/:correlative/lines/:code", opHandler.RemoveLine)
	ops.Get("/:correlative/stock/:code", opHandler.AvailableStock)
	ops.Post("/:correlative/confirm", opHandler.Confirm)
	ops.Post("/:correlative/receive", opHandler.Receive)
	ops.Post("/:correlative/reception/confirm", opHandler.ReceptionConfirm)

	// Stock y parámetros mínimo/máximo
	paramHandler := NewParameterHandler(deps.Parameters, deps.Reader)
	inv.Get("/stock/:store/:product", paramHandler.Stock)
	inv.Get("/parameters/:store/:product", paramHandler.Get)
	inv.Put("/parameters/:store/:product", paramHandler.Put)
}
