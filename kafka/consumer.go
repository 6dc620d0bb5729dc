package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/config"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PaymentReconciler applies a gateway payment outcome to the order it names.
type PaymentReconciler interface {
	UpdatePaymentStatus(ctx context.Context, invoiceNo, gatewayStatus string, details json.RawMessage) (models.PaymentStatusResponse, error)
}

// OrderNotifier reacts to committed order events.
type OrderNotifier interface {
	Notify(ctx context.Context, event models.OrderEvent) error
}

func InitConsumerGroup(cfg config.KafkaConfig, logger *zap.Logger) (sarama.ConsumerGroup, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, newSaramaConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	logger.Info("Kafka consumer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("group", cfg.ConsumerGroup),
	)
	return group, nil
}

// Consumer routes payment events to the reconciler and order events to the
// notifier.
type Consumer struct {
	group        sarama.ConsumerGroup
	paymentTopic string
	orderTopic   string
	reconciler   PaymentReconciler
	notifier     OrderNotifier
	logger       *zap.Logger
	maxRetries   int
	backoff      time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, cfg config.KafkaConfig, reconciler PaymentReconciler, notifier OrderNotifier, logger *zap.Logger) *Consumer {
	return &Consumer{
		group:        group,
		paymentTopic: cfg.PaymentTopic,
		orderTopic:   cfg.OrderTopic,
		reconciler:   reconciler,
		notifier:     notifier,
		logger:       logger,
		maxRetries:   3,
		backoff:      time.Second,
	}
}

// Run consumes until ctx is cancelled. Consume returns on every rebalance,
// so it is called in a loop.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("Kafka consumer error", zap.Error(err))
		}
	}()

	topics := []string{c.paymentTopic, c.orderTopic}
	c.logger.Info("Kafka consumer started", zap.Strings("topics", topics))

	for {
		if err := c.group.Consume(ctx, topics, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.handleMessageWithRetry(session.Context(), msg); err != nil {
				if session.Context().Err() != nil {
					// Unmarked, so the next session redelivers it.
					c.logger.Warn("Stopped before message was handled",
						zap.String("topic", msg.Topic),
						zap.Int64("offset", msg.Offset),
					)
					return nil
				}
				c.logger.Error("Failed to handle message after retries",
					zap.String("topic", msg.Topic),
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// permanent reports errors that will fail the same way on every retry.
func permanent(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindInvalidTransition, apperr.KindDuplicateReference:
		return true
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (c *Consumer) handleMessageWithRetry(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.handleMessage(ctx, msg)
		if err == nil {
			return nil
		}
		if permanent(err) {
			c.logger.Warn("Dropping event",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return nil
		}
		lastErr = err
		if attempt < c.maxRetries {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Warn("Retrying message handling",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Consumer) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	// Extract trace context from Kafka message headers
	ctx = otel.GetTextMapPropagator().Extract(ctx, saramaHeaderCarrierConsumer(msg.Headers))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ConsumeEvent", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(attribute.String("messaging.source", msg.Topic))

	var err error
	switch msg.Topic {
	case c.paymentTopic:
		err = c.handlePaymentEvent(ctx, span, msg.Value)
	case c.orderTopic:
		err = c.handleOrderEvent(ctx, span, msg.Value)
	default:
		c.logger.Debug("Unknown topic", zap.String("topic", msg.Topic))
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *Consumer) handlePaymentEvent(ctx context.Context, span trace.Span, value []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payment event: %w", err)
	}
	if event.InvoiceNo == "" {
		return apperr.Validation("kafka.payment_event", "missing invoice_no")
	}

	span.SetAttributes(
		attribute.String("invoice.no", event.InvoiceNo),
		attribute.String("payment.status", event.PaymentStatus),
	)
	c.logger.Info("Received payment event",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("invoice_no", event.InvoiceNo),
		zap.String("payment_status", event.PaymentStatus),
		zap.String("gateway_reference", event.GatewayReference),
	)

	_, err := c.reconciler.UpdatePaymentStatus(ctx, event.InvoiceNo, event.PaymentStatus, event.Details)
	return err
}

func (c *Consumer) handleOrderEvent(ctx context.Context, span trace.Span, value []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}

	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.Int64("order.id", event.OrderID),
	)
	if c.notifier == nil {
		return nil
	}
	return c.notifier.Notify(ctx, event)
}

// saramaHeaderCarrierConsumer adapts consumed headers to propagation.TextMapCarrier.
type saramaHeaderCarrierConsumer []*sarama.RecordHeader

func (c saramaHeaderCarrierConsumer) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c saramaHeaderCarrierConsumer) Set(key, value string) {}

func (c saramaHeaderCarrierConsumer) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
