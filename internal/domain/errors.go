package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los tipos estructurados de abajo envuelven a estos centinelas
// para que los llamadores usen errors.Is / errors.As.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrAlreadyValidated  = errors.New("la operación ya fue validada")
	ErrIncompleteCount   = errors.New("conteo incompleto")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNoDetails         = errors.New("la operación no tiene detalles")
	ErrInvalidState      = errors.New("transición no permitida en el estado actual")
	ErrPersistence       = errors.New("error de persistencia")
	ErrBusy              = errors.New("operación en uso, intente nuevamente")
)

// ValidationError entrada malformada o incompleta.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// IncompleteCountError el conjunto de códigos contados no coincide con las líneas de la operación.
// Expected y Received van ordenados; Missing lista códigos sin cantidad contada (solo recepción).
type IncompleteCountError struct {
	Expected []string
	Received []string
	Missing  []string
}

func (e *IncompleteCountError) Error() string {
	msg := fmt.Sprintf("%s: esperados [%s], recibidos [%s]", ErrIncompleteCount,
		strings.Join(e.Expected, ","), strings.Join(e.Received, ","))
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(", sin cantidad [%s]", strings.Join(e.Missing, ","))
	}
	return msg
}

func (e *IncompleteCountError) Unwrap() error { return ErrIncompleteCount }

// InsufficientStockError la cantidad pedida supera el stock disponible en la tienda de origen.
type InsufficientStockError struct {
	ProductCode string
	StoreCode   string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %s en %s, solicitado %s, disponible %s", ErrInsufficientStock,
		e.ProductCode, e.StoreCode, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError falla de E/S contra el almacén. Coincide con ErrPersistence y con la causa.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError envuelve err; devuelve nil si err es nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
