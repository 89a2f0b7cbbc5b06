package memory

import (
	"context"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner transacciones en memoria: fn trabaja sobre una copia del estado que solo se publica
// si fn termina sin error y el contexto sigue vigente. Las transacciones se ejecutan de a una.
type TxRunner struct {
	db *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(db *Store) *TxRunner {
	return &TxRunner{db: db}
}

// Run ejecuta fn con repositorios atados a la copia de trabajo.
func (r *TxRunner) Run(ctx context.Context, fn func(
	opRepo repository.InventoryOperationRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("begin transaction", err)
	}
	work := r.db.data.clone()
	if err := fn(
		&InventoryOperationRepo{scope{r.db, work}},
		&StockRepo{scope{r.db, work}},
		&ProductRepo{scope{r.db, work}},
	); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("commit transaction", err)
	}
	r.db.data = work
	return nil
}

// scope decide si un repositorio opera dentro de una transacción o contra el estado confirmado.
type scope struct {
	db *Store
	tx *dataset
}

func (s scope) with(ctx context.Context, fn func(d *dataset) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("memory store", err)
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.view(fn)
}
