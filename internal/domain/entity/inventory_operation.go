package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType tipo de operación de inventario.
type OperationType string

// Tipos de operación. ORDER_COLLECTION solo aparece en filas históricas y se lee como TRANSFER.
const (
	OperationTypeTransfer        OperationType = "TRANSFER"
	OperationTypeOrderCollection OperationType = "ORDER_COLLECTION"
)

// Canonical unifica los tipos históricos en el único ciclo de vida vigente.
func (t OperationType) Canonical() OperationType {
	if t == OperationTypeOrderCollection || t == "" {
		return OperationTypeTransfer
	}
	return t
}

// OperationState estado explícito del flujo de una operación.
type OperationState string

const (
	StateDraft     OperationState = "DRAFT"      // propuesta de recolección
	StateConfirmed OperationState = "CONFIRMED"  // contada, traslado en espera
	StateInTransit OperationState = "IN_TRANSIT" // traslado materializado
	StateReceived  OperationState = "RECEIVED"   // chequeada en recepción
)

// Valid indica si s es uno de los estados conocidos.
func (s OperationState) Valid() bool {
	switch s {
	case StateDraft, StateConfirmed, StateInTransit, StateReceived:
		return true
	}
	return false
}

// Wait valor del flag histórico "wait" para el estado.
func (s OperationState) Wait() bool {
	return s == StateDraft || s == StateConfirmed
}

// InventoryOperation cabecera de una operación de inventario (traslado entre tiendas).
type InventoryOperation struct {
	Correlative      int64
	OperationType    OperationType
	State            OperationState
	Wait             bool
	StatusMarker     string
	DocumentNo       string
	Differences      bool // última recepción con diferencias
	EmissionDate     time.Time
	OriginStore      string
	DestinationStore string
	UserCode         string
	Comments         string
	Total            decimal.Decimal // suma de amount de las líneas
	LastLine         int             // último número de línea asignado; nunca se reutiliza
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InventoryOperationLine detalle de una operación. Amount > 0 para toda línea persistida.
type InventoryOperationLine struct {
	MainCorrelative      int64
	Line                 int
	ProductCode          string
	Description          string
	Amount               decimal.Decimal
	FromStore            string
	ToStore              string
	Unit                 string
	UnitConversionFactor decimal.Decimal
	Location             string // enriquecido al leer, no persistido en la línea
}
