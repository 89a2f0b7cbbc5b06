package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
)

// withParams destino T01: A (stock 2, 10/20), B (stock 15, 10/20), C (stock 0, 5/8).
func withParams(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	f.db.SetStock("A", destination, dec("2"))
	f.db.SetStock("B", destination, dec("15"))
	for _, p := range []entity.ReplenishmentParameter{
		{ProductCode: "A", StoreCode: destination, MinimalStock: dec("10"), MaximumStock: dec("20")},
		{ProductCode: "B", StoreCode: destination, MinimalStock: dec("10"), MaximumStock: dec("20")},
		{ProductCode: "C", StoreCode: destination, MinimalStock: dec("5"), MaximumStock: dec("8"), Location: "G-2"},
	} {
		require.NoError(t, f.paramRepo.Upsert(ctx, &p))
	}
}

func TestPropose_SeleccionaBajoMinimoOrdenadoPorDestino(t *testing.T) {
	f := newFixture(t)
	withParams(t, f)

	got, err := f.replenish.Propose(context.Background(), inventory.ProposeInput{Origin: "bod01", Destination: "t01"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].ProductCode)
	assert.True(t, got[0].ToTransfer.Equal(dec("8")))
	assert.Equal(t, "G-2", got[0].Location)
	assert.Equal(t, "A", got[1].ProductCode)
	assert.True(t, got[1].ToTransfer.Equal(dec("18")))
}

func TestPropose_Filtros(t *testing.T) {
	f := newFixture(t)
	withParams(t, f)
	ctx := context.Background()

	got, err := f.replenish.Propose(ctx, inventory.ProposeInput{Origin: origin, Destination: destination, Department: "ASEO"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].ProductCode)

	got, err = f.replenish.Propose(ctx, inventory.ProposeInput{Origin: origin, Destination: destination, ProductCode: "alt-c"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].ProductCode)

	_, err = f.replenish.Propose(ctx, inventory.ProposeInput{Origin: origin, Destination: destination, ProductCode: "NOPE"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropose_OrigenSinStockNoPropone(t *testing.T) {
	f := newFixture(t)
	withParams(t, f)
	f.db.SetStock("A", origin, dec("0"))

	got, err := f.replenish.Propose(context.Background(), inventory.ProposeInput{Origin: origin, Destination: destination})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].ProductCode)
}

func TestPropose_EsIdempotente(t *testing.T) {
	f := newFixture(t)
	withParams(t, f)
	ctx := context.Background()
	in := inventory.ProposeInput{Origin: origin, Destination: destination}

	first, err := f.replenish.Propose(ctx, in)
	require.NoError(t, err)
	second, err := f.replenish.Propose(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPropose_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.replenish.Propose(ctx, inventory.ProposeInput{Destination: destination})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.replenish.Propose(ctx, inventory.ProposeInput{Origin: origin, Destination: origin})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.replenish.Propose(ctx, inventory.ProposeInput{Origin: origin, Destination: "T99"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropose_AlimentaBorrador(t *testing.T) {
	f := newFixture(t)
	withParams(t, f)
	ctx := context.Background()

	candidates, err := f.replenish.Propose(ctx, inventory.ProposeInput{Origin: origin, Destination: destination})
	require.NoError(t, err)
	corr, err := f.workflow.CreateDraft(ctx, inventory.CreateDraftInput{
		OriginStore:      origin,
		DestinationStore: destination,
		Lines:            inventory.DraftLinesFromCandidates(candidates),
	})
	require.NoError(t, err)

	h := f.header(t, corr)
	assert.True(t, h.Total.Equal(dec("26")))
}
