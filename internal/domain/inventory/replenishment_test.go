package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func snap(code, origin, dest, min, max string) entity.ReplenishmentSnapshot {
	return entity.ReplenishmentSnapshot{
		ProductCode:      code,
		StockOrigin:      d(origin),
		StockDestination: d(dest),
		MinimalStock:     d(min),
		MaximumStock:     d(max),
	}
}

func TestTransferQuantity_AplicaFormula(t *testing.T) {
	cases := []struct {
		name                   string
		origin, dest, max, exp string
	}{
		{"origen suficiente", "50", "2", "20", "18"},
		{"origen limitado", "3", "2", "20", "3"},
		{"destino sobre el máximo", "50", "25", "20", "0"},
		{"origen vacío", "0", "2", "20", "0"},
		{"redondeo mitad hacia arriba", "10", "1.005", "5", "4"},
		{"redondeo a dos decimales", "2.345", "0", "10", "2.35"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.TransferQuantity(d(tc.origin), d(tc.dest), d(tc.max))
			assert.True(t, d(tc.exp).Equal(got), "esperado %s, obtenido %s", tc.exp, got)
		})
	}
}

func TestSelectReplenishment_Escenarios(t *testing.T) {
	got := inventory.SelectReplenishment([]entity.ReplenishmentSnapshot{
		snap("P1", "50", "2", "10", "20"),
		snap("P2", "3", "2", "10", "20"),
	})
	require.Len(t, got, 2)
	assert.True(t, got[0].ToTransfer.Equal(d("18")))
	assert.True(t, got[1].ToTransfer.Equal(d("3")))
}

func TestSelectReplenishment_Predicado(t *testing.T) {
	got := inventory.SelectReplenishment([]entity.ReplenishmentSnapshot{
		snap("AT_MIN", "50", "10", "10", "20"),  // destino no está bajo el mínimo
		snap("NO_ORIGIN", "0", "1", "10", "20"), // sin stock en origen
		snap("NEG_ORIGIN", "-4", "1", "10", "20"),
		snap("ZERO_QTY", "5", "3", "10", "3"), // déficit cero
		snap("OK", "5", "3", "10", "20"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "OK", got[0].ProductCode)
	assert.True(t, got[0].ToTransfer.Equal(d("5")))
}

func TestSelectReplenishment_OrdenaPorStockDestino(t *testing.T) {
	input := []entity.ReplenishmentSnapshot{
		snap("C", "100", "7", "10", "20"),
		snap("B", "100", "0", "10", "20"),
		snap("A", "100", "7", "10", "20"),
		snap("D", "100", "3.5", "10", "20"),
	}
	got := inventory.SelectReplenishment(input)
	codes := make([]string, 0, len(got))
	for _, c := range got {
		codes = append(codes, c.ProductCode)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, codes)

	again := inventory.SelectReplenishment(input)
	assert.Equal(t, got, again, "la selección debe ser determinística")
}

func TestDeficit_NuncaNegativo(t *testing.T) {
	assert.True(t, inventory.Deficit(d("30"), d("20")).IsZero())
	assert.True(t, inventory.Deficit(d("5"), d("20")).Equal(d("15")))
}
