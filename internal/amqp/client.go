package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives both event kinds; the routing key tells them apart.
	for _, key := range []string{KeyLesseeRegistered, KeyPaymentRecorded} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue for %s: %w", key, err)
		}
	}

	return nil
}

// PublishLesseeRegistered publishes a registration event.
func (c *Client) PublishLesseeRegistered(ctx context.Context, lesseeID, vehicleID string) error {
	msg := NewLesseeRegisteredMessage(lesseeID, vehicleID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, KeyLesseeRegistered, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published lessee registered message",
		"message_id", msg.MessageID,
		"lessee_id", msg.LesseeID,
		"vehicle_id", msg.VehicleID)

	return nil
}

// PublishPaymentRecorded publishes a payment event.
func (c *Client) PublishPaymentRecorded(ctx context.Context, paymentID, lesseeID string, amountCents int64) error {
	msg := NewPaymentRecordedMessage(paymentID, lesseeID, amountCents)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, KeyPaymentRecorded, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published payment recorded message",
		"message_id", msg.MessageID,
		"payment_id", msg.PaymentID,
		"lessee_id", msg.LesseeID)

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// EventHandlers receives decoded lease events. Either field may be nil;
// deliveries without a handler are acked and dropped.
type EventHandlers struct {
	LesseeRegistered func(*LesseeRegisteredMessage) error
	PaymentRecorded  func(*PaymentRecordedMessage) error
}

// ConsumeEvents consumes lease events until ctx is cancelled, dispatching
// by routing key. Handler errors cause a requeue; undecodable bodies are
// rejected without requeue.
func (c *Client) ConsumeEvents(ctx context.Context, handlers EventHandlers) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming lease events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, delivery, handlers)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, handlers EventHandlers) {
	var err error

	switch delivery.RoutingKey {
	case KeyLesseeRegistered:
		if handlers.LesseeRegistered == nil {
			delivery.Ack(false)
			return
		}
		var msg *LesseeRegisteredMessage
		msg, err = LesseeRegisteredFromJSON(delivery.Body)
		if err == nil {
			err = handlers.LesseeRegistered(msg)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to handle registration event",
					"error", err, "message_id", msg.MessageID)
				delivery.Nack(false, true) // reject and requeue
				return
			}
		}
	case KeyPaymentRecorded:
		if handlers.PaymentRecorded == nil {
			delivery.Ack(false)
			return
		}
		var msg *PaymentRecordedMessage
		msg, err = PaymentRecordedFromJSON(delivery.Body)
		if err == nil {
			err = handlers.PaymentRecorded(msg)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to handle payment event",
					"error", err, "message_id", msg.MessageID)
				delivery.Nack(false, true) // reject and requeue
				return
			}
		}
	default:
		slog.WarnContext(ctx, "Unknown routing key", "routing_key", delivery.RoutingKey)
		delivery.Nack(false, false)
		return
	}

	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		delivery.Nack(false, false) // reject and don't requeue
		return
	}

	delivery.Ack(false)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
