package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/infrastructure/lock"
	"github.com/jhoicas/repostock/internal/infrastructure/memory"
	"github.com/jhoicas/repostock/pkg/logger"
)

const (
	origin      = "BOD01"
	destination = "T01"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recordingPublisher guarda los eventos publicados; con err configurado falla siempre.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.OperationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev inventory.OperationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db         *memory.Store
	pub        *recordingPublisher
	workflow   *inventory.WorkflowUseCase
	replenish  *inventory.ReplenishmentUseCase
	parameters *inventory.ParameterUseCase
	paramRepo  *memory.ParameterRepo
}

// newFixture dos tiendas y tres productos con 40 unidades cada uno en origen.
// C tiene el código alterno ALT-C.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewStore()
	db.AddStore(origin, "Bodega central")
	db.AddStore(destination, "Tienda norte")
	db.AddProduct(entity.Product{Code: "A", Description: "Arroz", Department: "ABARROTES", Unit: "UND"})
	db.AddProduct(entity.Product{Code: "B", Description: "Aceite", Department: "ABARROTES", Unit: "UND"})
	db.AddProduct(entity.Product{Code: "C", Description: "Jabón", Department: "ASEO", Unit: "CAJA", UnitConversionFactor: dec("12")}, "ALT-C")
	for _, code := range []string{"A", "B", "C"} {
		db.SetStock(code, origin, dec("40"))
	}

	pub := &recordingPublisher{}
	storeRepo := memory.NewStoreRepository(db)
	stockRepo := memory.NewStockRepository(db)
	productRepo := memory.NewProductRepository(db)
	paramRepo := memory.NewParameterRepository(db)
	return &fixture{
		db:         db,
		pub:        pub,
		workflow:   inventory.NewWorkflowUseCase(memory.NewTxRunner(db), memory.NewInventoryOperationRepository(db), storeRepo, lock.NewKeyedLocker(), pub, logger.Nop()),
		replenish:  inventory.NewReplenishmentUseCase(stockRepo, storeRepo, productRepo),
		parameters: inventory.NewParameterUseCase(inventory.NewStockSnapshotReader(stockRepo, paramRepo), paramRepo, storeRepo, productRepo),
		paramRepo:  paramRepo,
	}
}

// draft crea un borrador A:5, B:3.
func (f *fixture) draft(t *testing.T) int64 {
	t.Helper()
	corr, err := f.workflow.CreateDraft(context.Background(), inventory.CreateDraftInput{
		OriginStore:      origin,
		DestinationStore: destination,
		UserCode:         "ana",
		Lines: []inventory.DraftLineInput{
			{ProductCode: "A", Amount: dec("5")},
			{ProductCode: "B", Amount: dec("3")},
		},
	})
	require.NoError(t, err)
	return corr
}

// inTransit lleva un borrador nuevo hasta IN_TRANSIT.
func (f *fixture) inTransit(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	corr := f.draft(t)
	_, err := f.workflow.Confirm(ctx, corr, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, f.workflow.Receive(ctx, corr))
	return corr
}

func (f *fixture) header(t *testing.T, corr int64) *entity.InventoryOperation {
	t.Helper()
	view, err := f.workflow.GetOperation(context.Background(), corr, inventory.ReadQuery{})
	require.NoError(t, err)
	return view.Header
}

var errBroker = errors.New("broker caído")
