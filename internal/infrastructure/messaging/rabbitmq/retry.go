package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	qDLQ      = "contacts-api.mail.dlq"
	qRetry10s = "contacts-api.mail.retry.10s"
	qRetry1m  = "contacts-api.mail.retry.1m"
	qRetry10m = "contacts-api.mail.retry.10m"

	DLX10sExchange   = "contacts.mail.retry.10s"
	DLX1mExchange    = "contacts.mail.retry.1m"
	DLX10mExchange   = "contacts.mail.retry.10m"
	DLXFinalExchange = "contacts.mail.dlx"

	rkFinalDLQ = "mail.dlq"

	defaultMaxAttempts = 5
)

// retryPublisher republishes a failed delivery onto a delayed retry tier or the final DLQ.
type retryPublisher interface {
	PublishRetry(ctx context.Context, tier string, orig amqp.Delivery, nextAttempt int, cause error) error
	PublishFinal(ctx context.Context, orig amqp.Delivery, reason string, cause error) error
}

type channelRetryPublisher struct {
	ch *amqp.Channel
}

func (p *channelRetryPublisher) PublishRetry(ctx context.Context, tier string, orig amqp.Delivery, nextAttempt int, cause error) error {
	ex, err := tierExchange(tier)
	if err != nil {
		return err
	}
	h := copyHeaders(orig.Headers)
	h["x-attempt"] = int32(nextAttempt)
	h["x-last-error"] = truncateString(cause.Error(), 256)
	return p.publish(ctx, ex, orig, h)
}

func (p *channelRetryPublisher) PublishFinal(ctx context.Context, orig amqp.Delivery, reason string, cause error) error {
	h := copyHeaders(orig.Headers)
	h["x-final-reason"] = reason
	if cause != nil {
		h["x-last-error"] = truncateString(cause.Error(), 256)
	}
	return p.ch.PublishWithContext(ctx, DLXFinalExchange, rkFinalDLQ, false, false, amqp.Publishing{
		ContentType:  orig.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      h,
		Body:         orig.Body,
	})
}

func (p *channelRetryPublisher) publish(ctx context.Context, exchange string, orig amqp.Delivery, h amqp.Table) error {
	// The original routing key is kept so the TTL dead-letter lands back on the main binding.
	return p.ch.PublishWithContext(ctx, exchange, orig.RoutingKey, false, false, amqp.Publishing{
		ContentType:  orig.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      h,
		Body:         orig.Body,
	})
}

func tierExchange(tier string) (string, error) {
	switch tier {
	case "10s":
		return DLX10sExchange, nil
	case "1m":
		return DLX1mExchange, nil
	case "10m":
		return DLX10mExchange, nil
	default:
		return "", fmt.Errorf("unknown retry tier %q", tier)
	}
}

func retryTier(nextAttempt int) string {
	switch {
	case nextAttempt <= 1:
		return "10s"
	case nextAttempt == 2:
		return "1m"
	default:
		return "10m"
	}
}

func copyHeaders(h amqp.Table) amqp.Table {
	out := amqp.Table{}
	for k, v := range h {
		out[k] = v
	}
	return out
}

func getAttempt(h amqp.Table) int {
	if h == nil {
		return 0
	}
	switch t := h["x-attempt"].(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	default:
		return 0
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
