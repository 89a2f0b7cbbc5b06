package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	domaininv "github.com/jhoicas/repostock/internal/domain/inventory"
	"github.com/jhoicas/repostock/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// CreateDraft
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateDraft_Validaciones(t *testing.T) {
	f := newFixture(t)
	one := []inventory.DraftLineInput{{ProductCode: "A", Amount: dec("1")}}

	tests := []struct {
		name  string
		in    inventory.CreateDraftInput
		field string
	}{
		{"sin origen", inventory.CreateDraftInput{DestinationStore: destination, Lines: one}, "origin_store"},
		{"misma tienda", inventory.CreateDraftInput{OriginStore: origin, DestinationStore: "bod01", Lines: one}, "destination_store"},
		{"sin líneas", inventory.CreateDraftInput{OriginStore: origin, DestinationStore: destination}, "lines"},
		{"cantidad cero", inventory.CreateDraftInput{OriginStore: origin, DestinationStore: destination,
			Lines: []inventory.DraftLineInput{{ProductCode: "A", Amount: decimal.Zero}}}, "lines[0].amount"},
		{"código repetido", inventory.CreateDraftInput{OriginStore: origin, DestinationStore: destination,
			Lines: []inventory.DraftLineInput{{ProductCode: "A", Amount: dec("1")}, {ProductCode: "a", Amount: dec("2")}}}, "lines[1].product_code"},
		{"alterno repetido", inventory.CreateDraftInput{OriginStore: origin, DestinationStore: destination,
			Lines: []inventory.DraftLineInput{{ProductCode: "C", Amount: dec("1")}, {ProductCode: "ALT-C", Amount: dec("2")}}}, "lines"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.workflow.CreateDraft(context.Background(), tc.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateDraft_ProductoInexistenteNoDejaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.workflow.CreateDraft(ctx, inventory.CreateDraftInput{
		OriginStore:      origin,
		DestinationStore: destination,
		Lines: []inventory.DraftLineInput{
			{ProductCode: "A", Amount: dec("1")},
			{ProductCode: "ZZZ", Amount: dec("1")},
		},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.workflow.GetOperation(ctx, 1, inventory.ReadQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.pub.types())
}

func TestCreateDraft_EstadoInicialYCodigoAlterno(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	corr, err := f.workflow.CreateDraft(ctx, inventory.CreateDraftInput{
		OriginStore:      "bod01",
		DestinationStore: "t01",
		Lines:            []inventory.DraftLineInput{{ProductCode: "alt-c", Amount: dec("2.5")}},
	})
	require.NoError(t, err)

	view, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{})
	require.NoError(t, err)
	h := view.Header
	assert.Equal(t, entity.StateDraft, h.State)
	assert.True(t, h.Wait)
	assert.Equal(t, domaininv.MarkerDraft, h.StatusMarker)
	assert.Equal(t, origin, h.OriginStore)
	assert.True(t, h.Total.Equal(dec("2.5")))
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "C", view.Lines[0].ProductCode)
	assert.Equal(t, "CAJA", view.Lines[0].Unit)
	assert.True(t, view.Lines[0].UnitConversionFactor.Equal(dec("12")))
	assert.Equal(t, []string{inventory.EventOperationCreated}, f.pub.types())
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirm: igualdad exacta del conjunto contado
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirm_ConjuntoDistintoFalla(t *testing.T) {
	tests := []struct {
		name     string
		counted  []string
		received []string
	}{
		{"subconjunto", []string{"A"}, []string{"A"}},
		{"superconjunto", []string{"A", "B", "C"}, []string{"A", "B", "C"}},
		{"vacío", nil, []string{}},
		{"otro código", []string{"A", "C"}, []string{"A", "C"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			corr := f.draft(t)

			_, err := f.workflow.Confirm(context.Background(), corr, tc.counted)

			var cerr *domain.IncompleteCountError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, []string{"A", "B"}, cerr.Expected)
			assert.ElementsMatch(t, tc.received, cerr.Received)
			assert.Equal(t, entity.StateDraft, f.header(t, corr).State)
		})
	}
}

func TestConfirm_ConjuntoExactoSinImportarOrdenNiMayusculas(t *testing.T) {
	f := newFixture(t)
	corr := f.draft(t)

	res, err := f.workflow.Confirm(context.Background(), corr, []string{" b", "a", "A"})
	require.NoError(t, err)
	assert.Equal(t, "TR-00000001", res.DocumentNo)

	h := f.header(t, corr)
	assert.Equal(t, entity.StateConfirmed, h.State)
	assert.True(t, h.Wait)
	assert.Equal(t, domaininv.MarkerConfirmed+" TR-00000001", h.StatusMarker)
	assert.Equal(t, "TR-00000001", h.DocumentNo)
}

func TestConfirm_DobleConfirmacion(t *testing.T) {
	f := newFixture(t)
	corr := f.draft(t)
	ctx := context.Background()

	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.NoError(t, err)
	_, err = f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	assert.ErrorIs(t, err, domain.ErrAlreadyValidated)
}

func TestConfirm_ConcurrenteSoloUnoGana(t *testing.T) {
	f := newFixture(t)
	corr := f.draft(t)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		validated int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.workflow.Confirm(context.Background(), corr, []string{"A", "B"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyValidated):
				validated++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, validated)
}

func TestConfirm_SinLineas(t *testing.T) {
	f := newFixture(t)
	corr := f.draft(t)
	ctx := context.Background()

	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "A"))
	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "B"))

	_, err := f.workflow.Confirm(ctx, corr, nil)
	assert.ErrorIs(t, err, domain.ErrNoDetails)
	assert.True(t, f.header(t, corr).Total.IsZero())
}

func TestConfirm_OperacionInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.Confirm(context.Background(), 42, []string{"A"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Receive y ReceptionConfirm
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_TransicionesEIdempotencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	assert.ErrorIs(t, f.workflow.Receive(ctx, corr), domain.ErrInvalidState)

	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, f.workflow.Receive(ctx, corr))
	require.NoError(t, f.workflow.Receive(ctx, corr))

	h := f.header(t, corr)
	assert.Equal(t, entity.StateInTransit, h.State)
	assert.False(t, h.Wait)
	assert.Equal(t, domaininv.MarkerInTransit+" TR-00000001", h.StatusMarker)
	assert.Equal(t, []string{
		inventory.EventOperationCreated,
		inventory.EventOperationConfirmed,
		inventory.EventOperationInTransit,
	}, f.pub.types())
}

func TestReceptionConfirm_AntesDeTransitoFalla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)
	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.NoError(t, err)

	_, err = f.workflow.ReceptionConfirm(ctx, corr, []string{"A", "B"},
		map[string]decimal.Decimal{"A": dec("5"), "B": dec("3")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestReceptionConfirm_DiferenciasInformativasYReinvocable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.inTransit(t)

	res, err := f.workflow.ReceptionConfirm(ctx, corr, []string{"A", "B"},
		map[string]decimal.Decimal{"a": dec("4.5"), "B": dec("3")})
	require.NoError(t, err)
	assert.True(t, res.Differences)

	h := f.header(t, corr)
	assert.Equal(t, entity.StateReceived, h.State)
	assert.True(t, h.Differences)
	assert.Equal(t, domaininv.MarkerReceived+" TR-00000001 — "+domaininv.MarkerDifferences, h.StatusMarker)

	// Recontar con las cantidades correctas limpia las diferencias.
	res, err = f.workflow.ReceptionConfirm(ctx, corr, []string{"A", "B"},
		map[string]decimal.Decimal{"A": dec("5"), "B": dec("3.0")})
	require.NoError(t, err)
	assert.False(t, res.Differences)
	h = f.header(t, corr)
	assert.False(t, h.Differences)
	assert.Equal(t, domaininv.MarkerReceived+" TR-00000001", h.StatusMarker)
}

func TestReceptionConfirm_CantidadFaltante(t *testing.T) {
	f := newFixture(t)
	corr := f.inTransit(t)

	_, err := f.workflow.ReceptionConfirm(context.Background(), corr, []string{"A", "B"},
		map[string]decimal.Decimal{"A": dec("5")})

	var cerr *domain.IncompleteCountError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"B"}, cerr.Missing)
	assert.Equal(t, entity.StateInTransit, f.header(t, corr).State)
}

func TestReceptionConfirm_ConjuntoDistinto(t *testing.T) {
	f := newFixture(t)
	corr := f.inTransit(t)

	_, err := f.workflow.ReceptionConfirm(context.Background(), corr, []string{"A"},
		map[string]decimal.Decimal{"A": dec("5"), "B": dec("3")})
	assert.ErrorIs(t, err, domain.ErrIncompleteCount)
}

func TestReceptionConfirm_SinLineas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.inTransit(t)

	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "A"))
	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "B"))

	_, err := f.workflow.ReceptionConfirm(ctx, corr, nil, map[string]decimal.Decimal{})
	assert.ErrorIs(t, err, domain.ErrNoDetails)
	assert.Equal(t, entity.StateInTransit, f.header(t, corr).State)
}

func TestReceptionConfirm_CantidadNegativa(t *testing.T) {
	f := newFixture(t)
	corr := f.inTransit(t)

	_, err := f.workflow.ReceptionConfirm(context.Background(), corr, []string{"A", "B"},
		map[string]decimal.Decimal{"A": dec("-1"), "B": dec("3")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición de líneas
// ──────────────────────────────────────────────────────────────────────────────

func TestAddLine_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	corr := f.draft(t)

	_, err := f.workflow.AddLine(context.Background(), corr, "C", dec("100"))

	var serr *domain.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Requested.Equal(dec("100")))
	assert.True(t, serr.Available.Equal(dec("40")))
	assert.Equal(t, origin, serr.StoreCode)
}

func TestAddLine_NumeraYActualizaTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	line, err := f.workflow.AddLine(ctx, corr, "ALT-C", dec("40"))
	require.NoError(t, err)
	assert.Equal(t, "C", line.ProductCode)
	assert.Equal(t, 3, line.Line)
	assert.True(t, f.header(t, corr).Total.Equal(dec("48")))

	_, err = f.workflow.AddLine(ctx, corr, "c", dec("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// El número de línea no se reutiliza tras borrar.
	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "C"))
	line, err = f.workflow.AddLine(ctx, corr, "C", dec("1"))
	require.NoError(t, err)
	assert.Equal(t, 4, line.Line)
}

func TestUpdateCount_CeroEsTombstone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	require.NoError(t, f.workflow.UpdateCount(ctx, corr, "b", decimal.Zero))

	view, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Header.Total.Equal(dec("5")))

	_, err = f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	assert.ErrorIs(t, err, domain.ErrIncompleteCount)
	_, err = f.workflow.Confirm(ctx, corr, []string{"A"})
	assert.NoError(t, err)
}

func TestUpdateCount_Reglas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	assert.ErrorIs(t, f.workflow.UpdateCount(ctx, corr, "A", dec("-2")), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.workflow.UpdateCount(ctx, corr, "C", dec("2")), domain.ErrNotFound)
	require.NoError(t, f.workflow.UpdateCount(ctx, corr, "a", dec("7")))
	assert.True(t, f.header(t, corr).Total.Equal(dec("10")))

	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.workflow.UpdateCount(ctx, corr, "A", dec("1")), domain.ErrAlreadyValidated)
	assert.ErrorIs(t, f.workflow.RemoveLine(ctx, corr, "A"), domain.ErrAlreadyValidated)

	// En tránsito el receptor puede corregir cantidades.
	require.NoError(t, f.workflow.Receive(ctx, corr))
	require.NoError(t, f.workflow.UpdateCount(ctx, corr, "A", dec("6")))

	_, err = f.workflow.ReceptionConfirm(ctx, corr, []string{"A", "B"},
		map[string]decimal.Decimal{"A": dec("6"), "B": dec("3")})
	require.NoError(t, err)
	assert.ErrorIs(t, f.workflow.UpdateCount(ctx, corr, "A", dec("1")), domain.ErrAlreadyValidated)
}

func TestRemoveLine_UltimaLineaPermitida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "A"))
	require.NoError(t, f.workflow.RemoveLine(ctx, corr, "B"))
	assert.ErrorIs(t, f.workflow.RemoveLine(ctx, corr, "B"), domain.ErrNotFound)

	view, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{})
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, entity.StateDraft, view.Header.State)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas, borrado y eventos
// ──────────────────────────────────────────────────────────────────────────────

func TestGetOperation_FiltroWaitYUbicacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.inTransit(t)
	require.NoError(t, f.paramRepo.Upsert(ctx, &entity.ReplenishmentParameter{
		ProductCode: "A", StoreCode: destination, MinimalStock: dec("1"), MaximumStock: dec("2"), Location: "P-01",
	}))

	waiting := true
	_, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{Wait: &waiting})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	view, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{LocationStore: "t01"})
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "P-01", view.Lines[0].Location)
	assert.Empty(t, view.Lines[1].Location)
}

func TestAvailableStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	level, err := f.workflow.AvailableStock(ctx, corr, "alt-c")
	require.NoError(t, err)
	assert.Equal(t, "C", level.ProductCode)
	assert.True(t, level.Quantity.Equal(dec("40")))

	_, err = f.workflow.AvailableStock(ctx, corr, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)

	require.NoError(t, f.workflow.DeleteOperation(ctx, corr))
	_, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.workflow.DeleteOperation(ctx, corr), domain.ErrNotFound)
	assert.Contains(t, f.pub.types(), inventory.EventOperationDeleted)
}

func TestPublishFallidoNoRevierteTransicion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := f.draft(t)
	f.pub.err = errBroker

	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, f.header(t, corr).State)
}

func TestContextoCanceladoNoEscribe(t *testing.T) {
	f := newFixture(t)
	corr := f.draft(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.Error(t, err)
	assert.Equal(t, entity.StateDraft, f.header(t, corr).State)
}

func TestMutacion_NormalizaTextoHistorico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ops := memory.NewInventoryOperationRepository(f.db)

	corr, err := ops.CreateHeader(ctx, &entity.InventoryOperation{
		OperationType:    entity.OperationTypeOrderCollection,
		State:            entity.StateDraft,
		StatusMarker:     "pendiente de revisión",
		OriginStore:      origin,
		DestinationStore: destination,
	})
	require.NoError(t, err)
	require.NoError(t, ops.AppendLines(ctx, corr, []*entity.InventoryOperationLine{
		{ProductCode: "A", Amount: dec("2"), FromStore: origin, ToStore: destination, Unit: "UND", UnitConversionFactor: dec("1")},
	}))

	require.NoError(t, f.workflow.UpdateCount(ctx, corr, "A", dec("3")))

	h := f.header(t, corr)
	assert.Equal(t, domaininv.MarkerDraft, h.StatusMarker)
	assert.Equal(t, entity.OperationTypeTransfer, h.OperationType)
}

// legacyHeader inserta una cabecera sin estado explícito, como las filas previas a la columna.
func legacyHeader(t *testing.T, f *fixture, wait bool, marker string) int64 {
	t.Helper()
	ctx := context.Background()
	ops := memory.NewInventoryOperationRepository(f.db)
	corr, err := ops.CreateHeader(ctx, &entity.InventoryOperation{
		OperationType:    entity.OperationTypeTransfer,
		Wait:             wait,
		StatusMarker:     marker,
		OriginStore:      origin,
		DestinationStore: destination,
	})
	require.NoError(t, err)
	require.NoError(t, ops.AppendLines(ctx, corr, []*entity.InventoryOperationLine{
		{ProductCode: "A", Amount: dec("2"), FromStore: origin, ToStore: destination, Unit: "UND", UnitConversionFactor: dec("1")},
	}))
	return corr
}

func TestMutacion_FilaHistoricaValidadaNoEsEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := legacyHeader(t, f, true, "La operacion fue validada")

	assert.Equal(t, entity.StateConfirmed, f.header(t, corr).State)
	assert.ErrorIs(t, f.workflow.UpdateCount(ctx, corr, "A", dec("9")), domain.ErrAlreadyValidated)
	_, err := f.workflow.AddLine(ctx, corr, "B", dec("1"))
	assert.ErrorIs(t, err, domain.ErrAlreadyValidated)
	assert.ErrorIs(t, f.workflow.RemoveLine(ctx, corr, "A"), domain.ErrAlreadyValidated)
	_, err = f.workflow.Confirm(ctx, corr, []string{"A"})
	assert.ErrorIs(t, err, domain.ErrAlreadyValidated)

	view, err := f.workflow.GetOperation(ctx, corr, inventory.ReadQuery{})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].Amount.Equal(dec("2")))
}

func TestMutacion_RecuperaDocumentoDelTextoHistorico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	corr := legacyHeader(t, f, true, "Documento chequeado, Traslado en espera automatico 15")

	require.NoError(t, f.workflow.Receive(ctx, corr))

	h := f.header(t, corr)
	assert.Equal(t, entity.StateInTransit, h.State)
	assert.Equal(t, "15", h.DocumentNo)
	assert.Equal(t, domaininv.MarkerInTransit+" 15", h.StatusMarker)
}
