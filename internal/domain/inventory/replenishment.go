package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// TransferPrecision decimales con que se redondea la cantidad a trasladar.
const TransferPrecision = 2

// Candidate línea propuesta de reposición para un par origen/destino.
type Candidate struct {
	ProductCode          string
	Description          string
	Department           string
	Unit                 string
	UnitConversionFactor decimal.Decimal
	StockOrigin          decimal.Decimal
	StockDestination     decimal.Decimal
	MinimalStock         decimal.Decimal
	MaximumStock         decimal.Decimal
	ToTransfer           decimal.Decimal
	Location             string
}

// Deficit cantidad que falta para llevar el destino a su máximo: max(maximo - destino, 0).
func Deficit(stockDestination, maximumStock decimal.Decimal) decimal.Decimal {
	d := maximumStock.Sub(stockDestination)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// TransferQuantity min(stockOrigen, déficit) redondeado a dos decimales (mitad hacia arriba).
func TransferQuantity(stockOrigin, stockDestination, maximumStock decimal.Decimal) decimal.Decimal {
	q := decimal.Min(stockOrigin, Deficit(stockDestination, maximumStock))
	if q.IsNegative() {
		q = decimal.Zero
	}
	return q.Round(TransferPrecision)
}

// IsCandidate el destino está bajo su mínimo, el origen tiene stock y hay algo que trasladar.
func IsCandidate(stockOrigin, stockDestination, minimalStock, toTransfer decimal.Decimal) bool {
	return stockDestination.LessThan(minimalStock) &&
		stockOrigin.IsPositive() &&
		toTransfer.IsPositive()
}

// SelectReplenishment aplica la fórmula de reposición sobre las filas y devuelve los candidatos
// ordenados por stock en destino ascendente (los más agotados primero), desempatando por código.
// Es una función pura: mismas filas, mismo resultado.
func SelectReplenishment(snapshots []entity.ReplenishmentSnapshot) []Candidate {
	out := make([]Candidate, 0, len(snapshots))
	for _, s := range snapshots {
		qty := TransferQuantity(s.StockOrigin, s.StockDestination, s.MaximumStock)
		if !IsCandidate(s.StockOrigin, s.StockDestination, s.MinimalStock, qty) {
			continue
		}
		out = append(out, Candidate{
			ProductCode:          s.ProductCode,
			Description:          s.Description,
			Department:           s.Department,
			Unit:                 s.Unit,
			UnitConversionFactor: s.UnitConversionFactor,
			StockOrigin:          s.StockOrigin,
			StockDestination:     s.StockDestination,
			MinimalStock:         s.MinimalStock,
			MaximumStock:         s.MaximumStock,
			ToTransfer:           qty,
			Location:             s.Location,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StockDestination.Equal(b.StockDestination) {
			return a.StockDestination.LessThan(b.StockDestination)
		}
		return a.ProductCode < b.ProductCode
	})
	return out
}
