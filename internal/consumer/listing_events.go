package consumer

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/streadway/amqp"
)

// Listing event actions that change what searches return
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionApproved = "approved"
	ActionStatus   = "status_changed"
	ActionReviewed = "reviewed"
)

var knownActions = map[string]bool{
	ActionCreated:  true,
	ActionUpdated:  true,
	ActionDeleted:  true,
	ActionApproved: true,
	ActionStatus:   true,
	ActionReviewed: true,
}

// ListingEvent is published by the listing service whenever a listing changes
type ListingEvent struct {
	Action    string `json:"action"`
	ListingID int64  `json:"listing_id"`
}

// Invalidator drops cached search results
type Invalidator interface {
	Invalidate()
}

// ListingEventConsumer invalidates the search cache on listing events
type ListingEventConsumer struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	cache      Invalidator
	done       sync.WaitGroup
	closing    atomic.Bool
}

// NewListingEventConsumer dials RabbitMQ and declares the durable event queue
func NewListingEventConsumer(url, queueName string, cache Invalidator) (*ListingEventConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return newListingEventConsumer(conn, ch, queueName, cache), nil
}

func newListingEventConsumer(conn *amqp.Connection, ch *amqp.Channel, queueName string, cache Invalidator) *ListingEventConsumer {
	return &ListingEventConsumer{
		connection: conn,
		channel:    ch,
		queueName:  queueName,
		cache:      cache,
	}
}

// Start registers the consumer and handles deliveries in the background
// until the channel is closed
func (c *ListingEventConsumer) Start() error {
	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("✅ Listening for listing events on queue '%s'", c.queueName)

	c.done.Add(1)
	go func() {
		defer c.done.Done()
		c.consume(msgs)
	}()
	return nil
}

// consume handles deliveries until msgs is closed. The broker closes it when
// the connection drops; nothing reconnects, so the cache is flushed once and
// from then on relies on TTL expiry alone.
func (c *ListingEventConsumer) consume(msgs <-chan amqp.Delivery) {
	for msg := range msgs {
		c.handle(msg)
	}
	if c.closing.Load() {
		return
	}
	c.cache.Invalidate()
	log.Printf("⚠️  Listing event stream on queue '%s' ended unexpectedly; cached searches now expire by TTL only", c.queueName)
}

// handle processes one delivery. Malformed events are dropped without
// requeue since redelivery cannot fix them.
func (c *ListingEventConsumer) handle(msg amqp.Delivery) {
	var event ListingEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("⚠️  Dropping malformed listing event: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if event.ListingID <= 0 || !knownActions[event.Action] {
		log.Printf("⚠️  Dropping listing event with action %q for listing %d", event.Action, event.ListingID)
		_ = msg.Nack(false, false)
		return
	}

	c.cache.Invalidate()
	log.Printf("[DEBUG] 🔄 Listing %d %s, search cache invalidated", event.ListingID, event.Action)

	if err := msg.Ack(false); err != nil {
		log.Printf("⚠️  Failed to acknowledge listing event: %v", err)
	}
}

// Close closes the channel and connection, then waits for the handler
// goroutine to drain
func (c *ListingEventConsumer) Close() error {
	c.closing.Store(true)
	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing channel: %w", err))
		}
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing connection: %w", err))
		}
	}
	c.done.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing listing event consumer: %v", errs)
	}
	return nil
}
