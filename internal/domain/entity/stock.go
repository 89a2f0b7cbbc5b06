package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel cantidad disponible de un producto en una tienda. Una fila ausente equivale a cero.
type StockLevel struct {
	ProductCode string
	StoreCode   string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// ReplenishmentParameter mínimo/máximo y ubicación configurados para un producto en una tienda.
type ReplenishmentParameter struct {
	ProductCode  string
	StoreCode    string
	MinimalStock decimal.Decimal
	MaximumStock decimal.Decimal
	Location     string
	UpdatedAt    time.Time
}

// ReplenishmentSnapshot fila de lectura para el cálculo de reposición: un producto con
// parámetros en destino, junto al stock actual en origen y destino.
type ReplenishmentSnapshot struct {
	ProductCode          string
	Description          string
	Department           string
	Unit                 string
	UnitConversionFactor decimal.Decimal
	StockOrigin          decimal.Decimal
	StockDestination     decimal.Decimal
	MinimalStock         decimal.Decimal
	MaximumStock         decimal.Decimal
	Location             string
}
