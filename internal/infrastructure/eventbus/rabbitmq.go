// Package eventbus publica los eventos del flujo de operaciones en RabbitMQ y consume
// las notificaciones del proceso de despacho.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/repostock/internal/application/inventory"
	"github.com/jhoicas/repostock/pkg/logger"
)

const (
	exchangeType   = "topic"
	publishTimeout = 5 * time.Second
	dialAttempts   = 10
	dialBackoff    = 2 * time.Second
)

// Dial conecta al broker reintentando mientras arranca.
func Dial(ctx context.Context, url string, log *logger.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("conexión a RabbitMQ, reintentando")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return nil, fmt.Errorf("dial RabbitMQ: %w", lastErr)
}

var _ inventory.EventPublisher = (*Publisher)(nil)

// Publisher publica OperationEvent en un exchange topic, con routing key = tipo de evento,
// esperando la confirmación del broker para ese mensaje (por delivery tag).
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewPublisher abre un canal en modo confirmación y declara el exchange.
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open producer channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Publish serializa el evento como JSON y espera el ack del broker.
func (p *Publisher) Publish(ctx context.Context, ev inventory.OperationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.New().String(),
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	if confirm == nil {
		return fmt.Errorf("publish %s: canal sin modo confirmación", ev.Type)
	}
	return awaitConfirm(ctx, ev.Type, confirm, publishTimeout)
}

// confirmWaiter confirmación diferida de un único mensaje (amqp.DeferredConfirmation).
type confirmWaiter interface {
	WaitContext(ctx context.Context) (bool, error)
}

// awaitConfirm espera el ack de un mensaje. Cada confirmación queda asociada a su delivery tag,
// así una respuesta tardía no se confunde con la del siguiente envío.
func awaitConfirm(ctx context.Context, eventType string, c confirmWaiter, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	acked, err := c.WaitContext(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("publish %s: sin confirmación", eventType)
		}
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: rechazado por el broker", eventType)
	}
	return nil
}

// Close cierra el canal del productor.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
