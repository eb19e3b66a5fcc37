package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/useCases"
)

// Event type discriminators on the Kafka envelope.
const (
	EventTypePriceUpdate = "price_update"
	EventTypeVolumeSpike = "volume_spike"
	EventTypeNewToken    = "new_token"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// EventEnvelope wraps one aggregator event for the topic.
type EventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// KafkaEventSink mirrors aggregator events onto a Kafka topic, keyed by
// token address so events for one token stay ordered within a partition.
// Delivery is at-most-once: write errors are logged, never retried and
// never surfaced back to the aggregation engine.
type KafkaEventSink struct {
	writer *kafka.Writer
}

var _ useCases.EventSink = (*KafkaEventSink)(nil)

// NewKafkaEventSink creates a sink for the configured topic, or nil when no
// brokers are configured (Kafka mirroring disabled).
func NewKafkaEventSink(config KafkaConfig) *KafkaEventSink {
	if len(config.Brokers) == 0 {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // address-keyed partitioning
		RequiredAcks: kafka.RequireOne,
		Async:        true, // the merge path must not block on broker round-trips
	}
	return &KafkaEventSink{writer: writer}
}

func (s *KafkaEventSink) OnPriceUpdate(event model.PriceUpdateEvent) {
	s.publish(EventTypePriceUpdate, event.Address, event)
}

func (s *KafkaEventSink) OnVolumeSpike(event model.VolumeSpikeEvent) {
	s.publish(EventTypeVolumeSpike, event.Address, event)
}

func (s *KafkaEventSink) OnNewToken(token *model.Token) {
	s.publish(EventTypeNewToken, token.Address, token)
}

func (s *KafkaEventSink) publish(eventType, key string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal kafka event payload",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
		return
	}

	envelope := EventEnvelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("failed to marshal kafka event envelope", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  envelope.Timestamp,
	}); err != nil {
		slog.Warn("kafka event publish failed",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}

// Close closes the underlying writer.
func (s *KafkaEventSink) Close() error {
	return s.writer.Close()
}

// MultiSink fans one event stream out to several sinks.
type MultiSink struct {
	sinks []useCases.EventSink
}

var _ useCases.EventSink = (*MultiSink)(nil)

// NewMultiSink combines sinks, dropping nils.
func NewMultiSink(sinks ...useCases.EventSink) *MultiSink {
	out := make([]useCases.EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

func (m *MultiSink) OnPriceUpdate(event model.PriceUpdateEvent) {
	for _, s := range m.sinks {
		s.OnPriceUpdate(event)
	}
}

func (m *MultiSink) OnVolumeSpike(event model.VolumeSpikeEvent) {
	for _, s := range m.sinks {
		s.OnVolumeSpike(event)
	}
}

func (m *MultiSink) OnNewToken(token *model.Token) {
	for _, s := range m.sinks {
		s.OnNewToken(token)
	}
}
