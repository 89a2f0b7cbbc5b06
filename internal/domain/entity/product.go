package entity

import "github.com/shopspring/decimal"

// Product representa un producto del catálogo. Code es el código principal;
// los códigos alternos (barras, proveedor) se resuelven contra él.
type Product struct {
	Code                 string
	Description          string
	Department           string
	Unit                 string
	UnitConversionFactor decimal.Decimal // unidades base por unidad de venta
}
