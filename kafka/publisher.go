package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/batch-allocation/pkg/logger"
)

// Publisher wraps a Kafka sync producer
type Publisher struct {
	producer sarama.SyncProducer
}

// NewConfig returns the producer settings used by NewPublisher
func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// NewPublisher connects to brokers
func NewPublisher(brokers []string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer), nil
}

func NewPublisherWithProducer(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer}
}

// Connect returns nil when no brokers are configured or they are unreachable,
// which disables event publishing
func Connect(brokers []string) *Publisher {
	if len(brokers) == 0 {
		logger.Logger.Info().Msg("KAFKA_BROKERS not set, event publishing disabled")
		return nil
	}
	p, err := NewPublisher(brokers)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Kafka unavailable, event publishing disabled")
		return nil
	}
	return p
}

func (p *Publisher) PublishInventoryDepleted(ctx context.Context, event InventoryDepletedEvent) error {
	event.EventID = eventID(event.EventID)
	event.EventType = EventTypeInventoryDepleted
	event.Timestamp = time.Now().UTC()

	return p.publish(ctx, TopicInventoryEvents, event.EventType, event.EventID,
		fmt.Sprintf("product_%d", event.ProductID), event,
		attribute.Int64("product.id", int64(event.ProductID)),
		attribute.Int("inventory.requested", event.Requested),
		attribute.Bool("inventory.success", event.Success),
	)
}

func (p *Publisher) PublishInventoryRestocked(ctx context.Context, event InventoryRestockedEvent) error {
	event.EventID = eventID(event.EventID)
	event.EventType = EventTypeInventoryRestocked
	event.Timestamp = time.Now().UTC()

	return p.publish(ctx, TopicInventoryEvents, event.EventType, event.EventID,
		fmt.Sprintf("product_%d", event.ProductID), event,
		attribute.Int64("product.id", int64(event.ProductID)),
	)
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	event.EventID = eventID(event.EventID)
	event.EventType = EventTypeOrderPlaced
	event.Timestamp = time.Now().UTC()

	return p.publish(ctx, TopicOrderEvents, event.EventType, event.EventID,
		fmt.Sprintf("order_%d", event.OrderID), event,
		attribute.Int64("order.id", int64(event.OrderID)),
		attribute.String("order.status", event.Status),
	)
}

func eventID(id string) string {
	if id != "" {
		return id
	}
	return "evt_" + uuid.NewString()
}

// publish sends payload as JSON with the trace context carried in headers
func (p *Publisher) publish(ctx context.Context, topic, eventType, eventID, key string, payload any, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(body),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Error(ctx).
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)

	logger.Debug(ctx).
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

func (p *Publisher) Close() error {
	if p != nil && p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
