// Package memory implementa los puertos de persistencia en memoria del proceso.
// Sirve para ejecutar el servicio sin PostgreSQL (STORE_BACKEND=memory) y para los tests.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/internal/domain/entity"
	"github.com/jhoicas/repostock/internal/domain/inventory"
)

type key struct {
	product string
	store   string
}

// dataset estado completo; las transacciones trabajan sobre una copia y la publican al confirmar.
type dataset struct {
	stores          map[string]entity.Store
	products        map[string]entity.Product
	altCodes        map[string]string
	stock           map[key]entity.StockLevel
	params          map[key]entity.ReplenishmentParameter
	ops             map[int64]entity.InventoryOperation
	lines           map[int64][]entity.InventoryOperationLine
	nextCorrelative int64
}

func newDataset() *dataset {
	return &dataset{
		stores:   make(map[string]entity.Store),
		products: make(map[string]entity.Product),
		altCodes: make(map[string]string),
		stock:    make(map[key]entity.StockLevel),
		params:   make(map[key]entity.ReplenishmentParameter),
		ops:      make(map[int64]entity.InventoryOperation),
		lines:    make(map[int64][]entity.InventoryOperationLine),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.stores {
		c.stores[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.altCodes {
		c.altCodes[k] = v
	}
	for k, v := range d.stock {
		c.stock[k] = v
	}
	for k, v := range d.params {
		c.params[k] = v
	}
	for k, v := range d.ops {
		c.ops[k] = v
	}
	for k, v := range d.lines {
		c.lines[k] = append([]entity.InventoryOperationLine(nil), v...)
	}
	c.nextCorrelative = d.nextCorrelative
	return c
}

// Store base de datos en memoria. Un único mutex serializa las transacciones.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// view ejecuta fn sobre el estado confirmado, bajo el mutex.
func (s *Store) view(fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// AddStore registra una tienda.
func (s *Store) AddStore(code, name string) {
	_ = s.view(func(d *dataset) error {
		now := time.Now()
		code = inventory.NormalizeCode(code)
		d.stores[code] = entity.Store{Code: code, Name: name, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

// AddProduct registra un producto del catálogo; alternates son códigos alternos.
func (s *Store) AddProduct(p entity.Product, alternates ...string) {
	_ = s.view(func(d *dataset) error {
		p.Code = inventory.NormalizeCode(p.Code)
		if p.UnitConversionFactor.IsZero() {
			p.UnitConversionFactor = decimal.NewFromInt(1)
		}
		d.products[p.Code] = p
		for _, alt := range alternates {
			d.altCodes[inventory.NormalizeCode(alt)] = p.Code
		}
		return nil
	})
}

// SetStock fija la cantidad disponible de un producto en una tienda.
func (s *Store) SetStock(productCode, storeCode string, qty decimal.Decimal) {
	_ = s.view(func(d *dataset) error {
		k := key{inventory.NormalizeCode(productCode), inventory.NormalizeCode(storeCode)}
		d.stock[k] = entity.StockLevel{ProductCode: k.product, StoreCode: k.store, Quantity: qty, UpdatedAt: time.Now()}
		return nil
	})
}

// missingHeader equivalente a una violación de clave foránea en el almacén SQL.
func missingHeader(op string, correlative int64) error {
	return domain.NewPersistenceError(op, fmt.Errorf("inventory_operation %d no existe", correlative))
}
