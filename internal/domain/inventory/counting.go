package inventory

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// CountTolerance diferencia máxima entre cantidad registrada y contada que se considera igual.
var CountTolerance = decimal.New(1, -9)

// NormalizeCode normaliza un código de producto o tienda para comparaciones.
func NormalizeCode(code string) string {
	// Caser guarda estado: uno por llamada.
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// CodeSet conjunto de códigos normalizados, ordenado y sin repetidos.
func CodeSet(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := NormalizeCode(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LineCodes conjunto de códigos presentes en las líneas.
func LineCodes(lines []*entity.InventoryOperationLine) []string {
	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		codes = append(codes, l.ProductCode)
	}
	return CodeSet(codes)
}

// SameCodeSet compara dos conjuntos ya normalizados y ordenados.
func SameCodeSet(expected, received []string) bool {
	if len(expected) != len(received) {
		return false
	}
	for i := range expected {
		if expected[i] != received[i] {
			return false
		}
	}
	return true
}

// MissingCounts códigos de las líneas sin cantidad en counts (claves normalizadas).
func MissingCounts(lines []*entity.InventoryOperationLine, counts map[string]decimal.Decimal) []string {
	var missing []string
	for _, code := range LineCodes(lines) {
		if _, ok := counts[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}

// HasDifferences alguna línea difiere de su conteo en más de CountTolerance.
func HasDifferences(lines []*entity.InventoryOperationLine, counts map[string]decimal.Decimal) bool {
	for _, l := range lines {
		counted, ok := counts[NormalizeCode(l.ProductCode)]
		if !ok {
			return true
		}
		if l.Amount.Sub(counted).Abs().GreaterThan(CountTolerance) {
			return true
		}
	}
	return false
}

// NormalizeCounts vuelve a indexar counts por código normalizado.
func NormalizeCounts(counts map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(counts))
	for k, v := range counts {
		out[NormalizeCode(k)] = v
	}
	return out
}
