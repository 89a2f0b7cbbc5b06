package inventory

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/repostock/internal/domain/entity"
)

// Textos de estado visibles para el usuario. Se derivan del estado; no son fuente de verdad.
const (
	MarkerDraft       = "La operación aún no ha sido validada"
	MarkerConfirmed   = "Documento chequeado, traslado en espera automático"
	MarkerInTransit   = "Traslado en tránsito"
	MarkerReceived    = "Documento chequeado en recepción"
	MarkerDifferences = "Se encontraron diferencias"
)

// StatusMarker construye el texto de estado a partir del estado, el número de documento
// y el flag de diferencias de la última recepción.
func StatusMarker(state entity.OperationState, documentNo string, differences bool) string {
	var base string
	switch state {
	case entity.StateConfirmed:
		base = MarkerConfirmed
	case entity.StateInTransit:
		base = MarkerInTransit
	case entity.StateReceived:
		base = MarkerReceived
	default:
		return MarkerDraft
	}
	if documentNo = strings.TrimSpace(documentNo); documentNo != "" {
		base += " " + documentNo
	}
	if state == entity.StateReceived && differences {
		base += " — " + MarkerDifferences
	}
	return base
}

// StateFromLegacy reconstruye el estado de filas anteriores a la columna de estado,
// a partir del flag wait y del texto libre.
func StateFromLegacy(wait bool, marker string) entity.OperationState {
	m := fold(marker)
	if wait {
		if m == "la operacion fue validada" || strings.HasPrefix(m, "documento chequeado") {
			return entity.StateConfirmed
		}
		return entity.StateDraft
	}
	if strings.Contains(m, "chequeado en recepcion") {
		return entity.StateReceived
	}
	return entity.StateInTransit
}

// CanEditLines las líneas solo se modifican antes de confirmar o durante el tránsito.
func CanEditLines(state entity.OperationState) bool {
	return state == entity.StateDraft || state == entity.StateInTransit
}

// DocumentNoFromMarker número de documento de un texto histórico
// ("Documento chequeado, Traslado en espera automatico 15"): el último campo con dígitos.
func DocumentNoFromMarker(marker string) string {
	fields := strings.Fields(marker)
	for i := len(fields) - 1; i >= 0; i-- {
		f := strings.Trim(fields[i], ",.;")
		if strings.ContainsFunc(f, unicode.IsDigit) {
			return f
		}
	}
	return ""
}

// fold quita acentos y pasa a minúsculas para comparar textos históricos.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return cases.Lower(language.Spanish).String(out)
}
