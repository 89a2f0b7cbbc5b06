package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/repostock/internal/application/dto"
	"github.com/jhoicas/repostock/internal/domain"
)

// writeError traduce los errores de dominio a status HTTP y cuerpo dto.ErrorResponse.
// Los errores de persistencia no exponen la causa.
func writeError(c *fiber.Ctx, err error) error {
	var (
		validation *domain.ValidationError
		incomplete *domain.IncompleteCountError
		shortage   *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: err.Error(),
			Details: map[string]any{"field": validation.Field, "reason": validation.Reason},
		})
	case errors.As(err, &incomplete):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "INCOMPLETE_COUNT",
			Message: "los códigos chequeados no coinciden con las líneas de la operación",
			Details: map[string]any{
				"expected": nonNil(incomplete.Expected),
				"received": nonNil(incomplete.Received),
				"missing":  nonNil(incomplete.Missing),
			},
		})
	case errors.As(err, &shortage):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: "stock insuficiente en la tienda de origen",
			Details: map[string]any{
				"product_code": shortage.ProductCode,
				"store_code":   shortage.StoreCode,
				"requested":    shortage.Requested,
				"available":    shortage.Available,
			},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyValidated):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_VALIDATED", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrNoDetails):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NO_DETAILS", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "BUSY", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
