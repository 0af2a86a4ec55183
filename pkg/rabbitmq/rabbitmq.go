package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/streadway/amqp"

	"stylefinder/internal/logging"
	"stylefinder/internal/models"
)

const (
	// Exchange is the topic exchange every event is published to.
	Exchange = "stylefinder.events"
	// Queue collects every event for tail consumers.
	Queue = "stylefinder_events"

	RoutingSearchPerformed = "search.performed"
	RoutingTrendsComputed  = "trends.computed"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the event exchange and queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logging.Info().Str("exchange", Exchange).Str("queue", Queue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declare(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	_, err = ch.QueueDeclare(
		Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", Queue, err)
	}
	if err := ch.QueueBind(Queue, "#", Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", Queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishSearchPerformed publishes a search event.
func (c *Client) PublishSearchPerformed(event models.SearchEvent) error {
	return c.publish(RoutingSearchPerformed, event)
}

// PublishTrendsComputed publishes a trend ranking event.
func (c *Client) PublishTrendsComputed(event models.TrendEvent) error {
	return c.publish(RoutingTrendsComputed, event)
}

func (c *Client) publish(routingKey string, event any) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}
	err = c.channel.Publish(
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", routingKey, err)
	}
	logging.Debug().Str("routing_key", routingKey).RawJSON("event", body).Msg("event published")
	return nil
}

// Event is one consumed message.
type Event struct {
	RoutingKey string
	Body       []byte
	Timestamp  time.Time
}

// Handler processes one event. A returned error requeues the message
// unless it is a *PermanentError.
type Handler func(Event) error

// PermanentError marks an event that will never be processed successfully.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// ConsumeEvents delivers every queued event to handler until ctx is done
// or the channel closes.
func (c *Client) ConsumeEvents(ctx context.Context, handler Handler) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		Queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logging.Info().Str("queue", Queue).Msg("waiting for events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("RabbitMQ delivery channel closed")
			}
			handleDelivery(msg, handler)
		}
	}
}

// acknowledger is the part of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler Handler) {
	settle(&msg, Event{RoutingKey: msg.RoutingKey, Body: msg.Body, Timestamp: msg.Timestamp}, msg.DeliveryTag, handler)
}

func settle(ack acknowledger, event Event, tag uint64, handler Handler) {
	err := handler(event)
	if err == nil {
		if ackErr := ack.Ack(false); ackErr != nil {
			logging.Error().Err(ackErr).Uint64("delivery_tag", tag).Msg("error acking message")
		}
		return
	}
	var permanent *PermanentError
	requeue := !errors.As(err, &permanent)
	logging.Warn().Err(err).Uint64("delivery_tag", tag).Bool("requeue", requeue).Msg("error processing message")
	if nackErr := ack.Nack(false, requeue); nackErr != nil {
		logging.Error().Err(nackErr).Uint64("delivery_tag", tag).Msg("error nacking message")
	}
}

// Decode unmarshals an event body into the payload type of its routing key.
func Decode(event Event) (any, error) {
	var out any
	switch event.RoutingKey {
	case RoutingSearchPerformed:
		out = &models.SearchEvent{}
	case RoutingTrendsComputed:
		out = &models.TrendEvent{}
	default:
		return nil, &PermanentError{Err: fmt.Errorf("unknown routing key %q", event.RoutingKey)}
	}
	if err := json.Unmarshal(event.Body, out); err != nil {
		return nil, &PermanentError{Err: fmt.Errorf("failed to decode %s event: %w", event.RoutingKey, err)}
	}
	return out, nil
}
