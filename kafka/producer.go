package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/KunArthit/petterrain-api-sub000/circuitbreaker"
	"github.com/KunArthit/petterrain-api-sub000/config"
	"github.com/KunArthit/petterrain-api-sub000/logger"
	"github.com/KunArthit/petterrain-api-sub000/middleware"
	"github.com/KunArthit/petterrain-api-sub000/models"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "commerce-api/kafka"

func newSaramaConfig(log *zap.Logger) *sarama.Config {
	sarama.Logger = logger.NewPrintAdapter(log)

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Retry.Backoff = 1 * time.Second
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	return cfg
}

func InitProducer(cfg config.KafkaConfig, logger *zap.Logger) (sarama.SyncProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Brokers))
	return producer, nil
}

// OrderEventPublisher sends order events keyed by order id, so every event
// for one order lands on the same partition in commit order.
type OrderEventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewOrderEventPublisher(producer sarama.SyncProducer, topic string, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *OrderEventPublisher {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(5, 30*time.Second)
	}
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("Kafka publisher circuit changed state",
			zap.String("topic", topic),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	return &OrderEventPublisher{producer: producer, topic: topic, breaker: breaker, logger: logger}
}

func (p *OrderEventPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "PublishOrderEvent", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.Int64("order.id", event.OrderID),
		attribute.String("messaging.destination", p.topic),
	)

	err := p.breaker.Execute(ctx, func() error {
		return p.send(ctx, strconv.FormatInt(event.OrderID, 10), event)
	})
	if err != nil {
		span.RecordError(err)
		middleware.RecordEventPublished(p.topic, "error")
		return err
	}
	middleware.RecordEventPublished(p.topic, "ok")
	return nil
}

func (p *OrderEventPublisher) send(ctx context.Context, key string, event any) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka message headers
	carrier := make(saramaHeaderCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventJSON),
		Headers: []sarama.RecordHeader(carrier),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.Info("Event published",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("topic", p.topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *OrderEventPublisher) Close() error {
	return p.producer.Close()
}

// saramaHeaderCarrier adapts producer headers to propagation.TextMapCarrier.
type saramaHeaderCarrier []sarama.RecordHeader

func (c saramaHeaderCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *saramaHeaderCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{
		Key:   []byte(key),
		Value: []byte(value),
	})
}

func (c saramaHeaderCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
