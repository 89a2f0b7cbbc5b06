// seed_minmax genera un script SQL que carga los mínimos y máximos por tienda (products_failures)
// a partir de la planilla exportada por el sistema anterior (CSV ISO-8859-1 separado por ';').
//
// Columnas: tienda;producto;minimo;maximo[;ubicacion]. La primera fila es encabezado.
//
// Uso: go run ./cmd/seed_minmax [ruta/minmax.csv] [salida.sql]
// Por defecto lee minmax.csv y escribe migrations/0002_seed_minmax.sql.
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/repostock/internal/domain/inventory"
)

type row struct {
	store    string
	product  string
	min      decimal.Decimal
	max      decimal.Decimal
	location string
}

func main() {
	csvPath := "minmax.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outPath := filepath.Join(findModuleRoot(), "migrations", "0002_seed_minmax.sql")
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, skipped, err := parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d parámetros, %d filas descartadas\n", outPath, len(rows), len(skipped))
	for _, s := range skipped {
		fmt.Println("  descartada:", s)
	}
}

// parse decodifica Latin-1 y valida cada fila; las inválidas se devuelven como texto en skipped.
// Si un par tienda/producto se repite gana la última fila.
func parse(r io.Reader) (rows []row, skipped []string, err error) {
	reader := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	byKey := make(map[string]row)
	line := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++
		if line == 1 {
			continue
		}
		parsed, reason := parseRecord(rec)
		if reason != "" {
			skipped = append(skipped, fmt.Sprintf("línea %d: %s", line, reason))
			continue
		}
		byKey[parsed.store+"|"+parsed.product] = parsed
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, byKey[k])
	}
	return rows, skipped, nil
}

func parseRecord(rec []string) (row, string) {
	if len(rec) < 4 {
		return row{}, "faltan columnas"
	}
	r := row{
		store:   inventory.NormalizeCode(rec[0]),
		product: inventory.NormalizeCode(rec[1]),
	}
	if r.store == "" || r.product == "" {
		return row{}, "tienda o producto vacío"
	}
	var err error
	if r.min, err = parseAmount(rec[2]); err != nil {
		return row{}, "mínimo inválido"
	}
	if r.max, err = parseAmount(rec[3]); err != nil {
		return row{}, "máximo inválido"
	}
	if r.min.IsNegative() || r.max.LessThan(r.min) {
		return row{}, fmt.Sprintf("rango inválido %s/%s", r.min, r.max)
	}
	if len(rec) > 4 {
		r.location = strings.TrimSpace(rec[4])
	}
	return r, ""
}

// parseAmount acepta coma decimal ("12,5").
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func writeSQL(w io.Writer, rows []row) error {
	var sb strings.Builder
	sb.WriteString("-- Mínimos y máximos por tienda\n")
	sb.WriteString("-- Generado por cmd/seed_minmax\n\n")
	for _, r := range rows {
		fmt.Fprintf(&sb,
			"INSERT INTO products_failures (code_product, code_store, minimal_stock, maximum_stock, location)\n"+
				"VALUES ('%s', '%s', %s, %s, '%s')\n"+
				"ON CONFLICT (code_product, code_store) DO UPDATE SET minimal_stock = EXCLUDED.minimal_stock,\n"+
				"    maximum_stock = EXCLUDED.maximum_stock, location = EXCLUDED.location, updated_at = now();\n",
			escapeSQL(r.product), escapeSQL(r.store), r.min.String(), r.max.String(), escapeSQL(r.location))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
