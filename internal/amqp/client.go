// Package amqp publishes and consumes ledger-change events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "walletstats/internal/log"
	"walletstats/internal/metrics"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var errDeliveriesClosed = errors.New("message channel closed")

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *applog.Logger
	metrics      *metrics.Metrics

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

// NewClient dials url and declares the durable queue bound to the direct exchange.
func NewClient(url, exchangeName, queueName string, logger *applog.Logger, m *metrics.Metrics) (*Client, error) {
	if logger == nil {
		logger = applog.Nop()
	}
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(applog.ComponentAMQP),
		metrics:      m,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	err := ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
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
		return fmt.Errorf("declare queue: %w", err)
	}

	// The routing key is the queue name.
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// isCircuitOpen reports whether publishing is suspended. An open circuit turns
// half-open once openTimeout has passed since the last failure.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// PublishLedgerChanged announces a ledger change for userID.
func (c *Client) PublishLedgerChanged(ctx context.Context, userID string, occurredAt time.Time) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish ledger change: circuit breaker is open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewLedgerChangedMessage(userID, occurredAt)
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch := c.currentChannel()
	if ch == nil {
		c.recordFailure()
		return fmt.Errorf("publish ledger change: connection closed")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published ledger change",
		applog.FieldUserID, userID,
		"message_id", msg.MessageID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Handler processes one ledger change. A returned error requeues the message.
type Handler func(ctx context.Context, msg *LedgerChangedMessage) error

// ConsumeLedgerChanges delivers messages to handler until ctx ends or the channel
// closes. Acknowledgement is manual.
func (c *Client) ConsumeLedgerChanges(ctx context.Context, handler Handler) error {
	ch := c.currentChannel()
	if ch == nil {
		return fmt.Errorf("start consuming: connection closed")
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming ledger changes", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

// handleDelivery acks processed messages, drops malformed ones and requeues
// messages whose handler failed.
func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler Handler) string {
	msg, err := LedgerChangedMessageFromJSON(delivery.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Rejecting malformed ledger change", applog.FieldError, err)
		c.settled(ctx, "nack", delivery.Nack(false, false))
		c.metrics.LedgerEvent("rejected")
		return "rejected"
	}

	if err := handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle ledger change",
			applog.FieldError, err,
			applog.FieldUserID, msg.UserID)
		c.settled(ctx, "requeue", delivery.Nack(false, true))
		c.metrics.LedgerEvent("requeued")
		return "requeued"
	}

	c.settled(ctx, "ack", delivery.Ack(false))
	c.metrics.LedgerEvent("ok")
	c.logger.DebugContext(ctx, "Processed ledger change",
		applog.FieldUserID, msg.UserID,
		"message_id", msg.MessageID)
	return "ok"
}

// settled logs a failed acknowledgement. The broker redelivers the message once
// the channel closes.
func (c *Client) settled(ctx context.Context, action string, err error) {
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to acknowledge ledger change", applog.FieldError, err, "action", action, "queue", c.queueName)
	}
}

// Run consumes until ctx ends, reconnecting with exponential backoff when the
// broker connection drops.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.ConsumeLedgerChanges(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, errDeliveriesClosed) && !isConnectionError(err) {
			return err
		}

		c.recordFailure()
		c.closeConn()
		for {
			wait := exponentialBackoff(attempt)
			attempt++
			c.logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
				applog.FieldError, err, "retry_in", wait.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			if err = c.connect(); err == nil {
				c.recordSuccess()
				attempt = 0
				break
			}
			c.recordFailure()
		}
	}
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.closeConn()
	return nil
}
