package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Sender delivers one mail. email.SMTPSender satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type ConsumerConfig struct {
	RabbitURL   string
	Exchange    string
	Queue       string
	Prefetch    int
	Tag         string
	MaxAttempts int
}

// MailConsumer drains the mail queue and hands each message to a Sender.
// Retriable failures go through delayed retry queues; the rest end in the DLQ.
type MailConsumer struct {
	url         string
	exchange    string
	queue       string
	prefetch    int
	tag         string
	maxAttempts int

	lg     zerolog.Logger
	sender Sender

	mu      sync.Mutex
	running bool
	doneCh  chan struct{}

	conn      *amqp.Connection
	chConsume *amqp.Channel
	chPublish *amqp.Channel

	deliveries <-chan amqp.Delivery
	pub        retryPublisher
}

func NewMailConsumer(cfg ConsumerConfig, sender Sender, lg zerolog.Logger) *MailConsumer {
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &MailConsumer{
		url:         cfg.RabbitURL,
		exchange:    exchange,
		queue:       queue,
		prefetch:    cfg.Prefetch,
		tag:         cfg.Tag,
		maxAttempts: maxAttempts,
		sender:      sender,
		lg:          lg.With().Str("component", "mail_consumer").Logger(),
	}
}

func (c *MailConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.sender == nil {
		return fmt.Errorf("nil sender")
	}

	c.doneCh = make(chan struct{})
	c.running = true
	go c.run(ctx)
	return nil
}

// Done is closed once the supervisor loop has exited.
func (c *MailConsumer) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doneCh
}

func (c *MailConsumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	doneCh := c.doneCh
	c.running = false
	c.mu.Unlock()

	c.closeConn()

	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MailConsumer) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		doneCh := c.doneCh
		c.running = false
		c.mu.Unlock()

		if doneCh != nil {
			close(doneCh)
		}
	}()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.lg.Info().Msg("consumer supervisor exiting (ctx cancelled)")
			return
		default:
		}

		if !c.isRunning() {
			c.lg.Info().Msg("consumer supervisor exiting (stopped)")
			return
		}

		if err := c.connectAndDeclare(); err != nil {
			if isPreconditionFailed(err) {
				c.lg.Error().Err(err).Msg("FATAL: topology precondition failed. Delete and recreate MQ resources, then restart.")
				return
			}

			c.lg.Error().Err(err).Dur("backoff", backoff).Msg("connectAndDeclare failed; retrying")
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		backoff = 1 * time.Second
		c.consumeLoop(ctx)

		select {
		case <-ctx.Done():
			return
		default:
		}

		c.lg.Warn().Dur("backoff", backoff).Msg("deliveries closed; reconnecting")
		c.closeConn()

		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = minDur(backoff*2, maxBackoff)
	}
}

func (c *MailConsumer) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *MailConsumer) connectAndDeclare() error {
	c.closeConn()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	chConsume, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("consume channel: %w", err)
	}

	chPublish, err := conn.Channel()
	if err != nil {
		_ = chConsume.Close()
		_ = conn.Close()
		return fmt.Errorf("publish channel: %w", err)
	}

	fail := func(err error) error {
		closeAll(conn, chConsume, chPublish)
		return err
	}

	if err := chConsume.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("main exchange declare: %w", err))
	}
	for _, ex := range []string{DLX10sExchange, DLX1mExchange, DLX10mExchange, DLXFinalExchange} {
		if err := chConsume.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("dlx exchange declare (%s): %w", ex, err))
		}
	}

	mainArgs := amqp.Table{
		"x-dead-letter-exchange":    DLXFinalExchange,
		"x-dead-letter-routing-key": rkFinalDLQ,
	}
	if _, err := chConsume.QueueDeclare(c.queue, true, false, false, false, mainArgs); err != nil {
		return fail(fmt.Errorf("main queue declare: %w", err))
	}
	if err := chConsume.QueueBind(c.queue, RoutingKeyMailSend, c.exchange, false, nil); err != nil {
		return fail(fmt.Errorf("main queue bind: %w", err))
	}

	if _, err := chConsume.QueueDeclare(qDLQ, true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("dlq queue declare: %w", err))
	}
	if err := chConsume.QueueBind(qDLQ, rkFinalDLQ, DLXFinalExchange, false, nil); err != nil {
		return fail(fmt.Errorf("dlq queue bind: %w", err))
	}

	for _, rq := range []struct {
		name, exchange string
		ttl            time.Duration
	}{
		{qRetry10s, DLX10sExchange, 10 * time.Second},
		{qRetry1m, DLX1mExchange, time.Minute},
		{qRetry10m, DLX10mExchange, 10 * time.Minute},
	} {
		if err := declareRetryQueue(chConsume, rq.name, rq.exchange, rq.ttl, c.exchange); err != nil {
			return fail(err)
		}
	}

	if c.prefetch > 0 {
		if err := chConsume.Qos(c.prefetch, 0, false); err != nil {
			return fail(fmt.Errorf("qos: %w", err))
		}
	}

	dlv, err := chConsume.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("consume: %w", err))
	}

	c.mu.Lock()
	c.conn = conn
	c.chConsume = chConsume
	c.chPublish = chPublish
	c.deliveries = dlv
	c.pub = &channelRetryPublisher{ch: chPublish}
	c.mu.Unlock()

	c.lg.Info().
		Str("exchange", c.exchange).
		Str("queue", c.queue).
		Int("prefetch", c.prefetch).
		Int("max_attempts", c.maxAttempts).
		Msg("rabbitmq mail consumer ready")

	return nil
}

func declareRetryQueue(ch *amqp.Channel, qName, tierExchange string, ttl time.Duration, mainExchange string) error {
	args := amqp.Table{
		"x-message-ttl":          int64(ttl / time.Millisecond),
		"x-dead-letter-exchange": mainExchange,
	}
	if _, err := ch.QueueDeclare(qName, true, false, false, false, args); err != nil {
		return fmt.Errorf("retry queue declare (%s): %w", qName, err)
	}
	if err := ch.QueueBind(qName, "#", tierExchange, false, nil); err != nil {
		return fmt.Errorf("retry queue bind (%s): %w", qName, err)
	}
	return nil
}

func (c *MailConsumer) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.lg.Info().Msg("consume loop context cancelled")
			return

		case d, ok := <-c.deliveries:
			if !ok {
				c.lg.Warn().Msg("deliveries channel closed")
				return
			}
			c.process(ctx, d)
		}
	}
}

// process settles exactly one delivery.
func (c *MailConsumer) process(ctx context.Context, d amqp.Delivery) {
	start := time.Now()
	err := c.handleDelivery(ctx, d)

	if err == nil {
		_ = d.Ack(false)
		c.lg.Info().Str("routing_key", d.RoutingKey).Dur("took", time.Since(start)).Msg("message processed")
		return
	}

	var rerr *requeueError
	if errors.As(err, &rerr) && rerr.requeue {
		_ = d.Nack(false, true)
		c.lg.Warn().Err(err).Str("routing_key", d.RoutingKey).Msg("handle failed; requeue=true")
		return
	}

	_ = d.Nack(false, false)
	c.lg.Error().Err(err).Str("routing_key", d.RoutingKey).Msg("handle failed; nack requeue=false")
}

func (c *MailConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) error {
	rk := strings.TrimSpace(d.RoutingKey)
	if rk != RoutingKeyMailSend {
		c.lg.Warn().
			Str("routing_key", truncateString(rk, 100)).
			Str("decision", "drop_ack").
			Msg("unknown routing key; dropping")
		return nil
	}

	var msg MailMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return c.toFinalDLQ(ctx, d, "bad_json", err)
	}
	if strings.TrimSpace(msg.To) == "" {
		return c.toFinalDLQ(ctx, d, "missing_recipient", nil)
	}

	if err := c.sender.Send(ctx, msg.To, msg.Subject, msg.HTMLBody); err != nil {
		return c.onSendError(ctx, d, err)
	}
	return nil
}

func (c *MailConsumer) onSendError(ctx context.Context, d amqp.Delivery, err error) error {
	if isNonRetriable(err) {
		return c.toFinalDLQ(ctx, d, "non_retriable", err)
	}

	attempt := getAttempt(d.Headers)
	if attempt >= c.maxAttempts {
		return c.toFinalDLQ(ctx, d, "max_attempts_exceeded", err)
	}

	nextAttempt := attempt + 1
	tier := retryTier(nextAttempt)

	if c.pub == nil {
		return requeue(fmt.Errorf("nil retry publisher"))
	}
	if pubErr := c.pub.PublishRetry(ctx, tier, d, nextAttempt, err); pubErr != nil {
		return requeue(fmt.Errorf("republish retry failed: %w", pubErr))
	}

	c.lg.Warn().
		Int("attempt", nextAttempt).
		Str("tier", tier).
		Msg("retriable failure: republished to retry tier")
	return nil
}

func (c *MailConsumer) toFinalDLQ(ctx context.Context, d amqp.Delivery, reason string, cause error) error {
	if c.pub == nil {
		return requeue(fmt.Errorf("nil retry publisher"))
	}
	if pubErr := c.pub.PublishFinal(ctx, d, reason, cause); pubErr != nil {
		return requeue(fmt.Errorf("republish dlq failed: %w", pubErr))
	}
	c.lg.Error().Str("reason", reason).Err(cause).Msg("sent to final DLQ")
	return nil
}

func isNonRetriable(err error) bool {
	var per interface{ Permanent() bool }
	if errors.As(err, &per) && per.Permanent() {
		return true
	}
	return errors.Is(err, context.Canceled)
}

type requeueError struct {
	err     error
	requeue bool
}

func (e *requeueError) Error() string { return e.err.Error() }
func (e *requeueError) Unwrap() error { return e.err }

func requeue(err error) error { return &requeueError{err: err, requeue: true} }

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func isPreconditionFailed(err error) bool {
	var aerr *amqp.Error
	if errors.As(err, &aerr) {
		return aerr.Code == amqp.PreconditionFailed
	}
	return false
}

func (c *MailConsumer) closeConn() {
	c.mu.Lock()
	conn, chC, chP := c.conn, c.chConsume, c.chPublish
	c.conn, c.chConsume, c.chPublish = nil, nil, nil
	c.deliveries = nil
	c.pub = nil
	c.mu.Unlock()

	closeAll(conn, chC, chP)
}

func closeAll(conn *amqp.Connection, chs ...*amqp.Channel) {
	for _, ch := range chs {
		if ch != nil {
			_ = ch.Close()
		}
	}
	if conn != nil {
		_ = conn.Close()
	}
}
