package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/repostock/internal/domain"
	"github.com/jhoicas/repostock/pkg/logger"
)

// Receiver transición CONFIRMED -> IN_TRANSIT (WorkflowUseCase.Receive).
type Receiver interface {
	Receive(ctx context.Context, correlative int64) error
}

// TransferMaterialized mensaje del proceso de despacho: el traslado ya salió de la tienda de origen.
type TransferMaterialized struct {
	Correlative int64  `json:"correlative"`
	DocumentNo  string `json:"document_no,omitempty"`
}

// ConsumerConfig topología de la cola de despacho.
type ConsumerConfig struct {
	Exchange   string
	Queue      string
	RoutingKey string
	Prefetch   int
}

// Consumer escucha la cola de despacho y marca las operaciones en tránsito.
type Consumer struct {
	conn     *amqp.Connection
	cfg      ConsumerConfig
	receiver Receiver
	log      *logger.Logger
	timeout  time.Duration
}

// NewConsumer construye el consumidor.
func NewConsumer(conn *amqp.Connection, cfg ConsumerConfig, receiver Receiver, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{conn: conn, cfg: cfg, receiver: receiver, log: log, timeout: 30 * time.Second}
}

// Start declara la topología y procesa mensajes hasta que ctx termine o el canal se cierre.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	if c.cfg.Prefetch > 0 {
		if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("set QoS: %w", err)
		}
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, exchangeType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}
	if err := ch.QueueBind(c.cfg.Queue, c.cfg.RoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.cfg.Queue, err)
	}

	msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	c.log.Info().Str("queue", c.cfg.Queue).Msg("esperando traslados despachados")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("canal de RabbitMQ cerrado")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	ack, requeue := c.process(ctx, d.Body, d.Redelivered)
	var err error
	if ack {
		err = d.Ack(false)
	} else {
		err = d.Nack(false, requeue)
	}
	if err != nil {
		c.log.Error().Err(err).Msg("ack/nack de mensaje")
	}
}

// process decide el destino del mensaje: ack, reencolar una vez los errores transitorios,
// o descartar los mensajes inválidos y los rechazos de negocio.
func (c *Consumer) process(ctx context.Context, body []byte, redelivered bool) (ack, requeue bool) {
	var msg TransferMaterialized
	if err := json.Unmarshal(body, &msg); err != nil || msg.Correlative <= 0 {
		c.log.Error().Err(err).Bytes("body", body).Msg("mensaje de despacho inválido, descartado")
		return false, false
	}

	recvCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.receiver.Receive(recvCtx, msg.Correlative)
	switch {
	case err == nil:
		c.log.Info().Int64("correlative", msg.Correlative).Bool("redelivered", redelivered).Msg("traslado recibido del despacho")
		return true, false
	case isPermanent(err):
		c.log.Warn().Err(err).Int64("correlative", msg.Correlative).Msg("traslado rechazado, descartado")
		return false, false
	default:
		c.log.Error().Err(err).Int64("correlative", msg.Correlative).Msg("procesar traslado")
		return false, !redelivered
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidState) ||
		errors.Is(err, domain.ErrInvalidInput)
}
