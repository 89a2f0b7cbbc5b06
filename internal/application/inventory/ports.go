package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/repostock/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela) no queda ninguna escritura parcial.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		opRepo repository.InventoryOperationRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Locker serializa las mutaciones sobre una misma operación entre réplicas del servicio.
// release siempre es no nil cuando err == nil.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Tipos de evento publicados tras cada transición confirmada.
const (
	EventOperationCreated   = "inventory.operation.created"
	EventOperationConfirmed = "inventory.operation.confirmed"
	EventOperationInTransit = "inventory.operation.in_transit"
	EventOperationReceived  = "inventory.operation.received"
	EventOperationDeleted   = "inventory.operation.deleted"
)

// OperationEvent notificación de cambio de estado de una operación.
type OperationEvent struct {
	Type             string    `json:"type"`
	Correlative      int64     `json:"correlative"`
	State            string    `json:"state"`
	DocumentNo       string    `json:"document_no,omitempty"`
	OriginStore      string    `json:"origin_store"`
	DestinationStore string    `json:"destination_store"`
	Differences      bool      `json:"differences"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// EventPublisher publica eventos del flujo. Se invoca después del commit; un fallo no revierte la transición.
type EventPublisher interface {
	Publish(ctx context.Context, ev OperationEvent) error
}

// NopPublisher descarta los eventos (mensajería deshabilitada).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, OperationEvent) error { return nil }
