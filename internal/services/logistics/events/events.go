// Package events publishes transfer lifecycle notifications to Kafka so
// downstream consumers (billing, analytics, notifications) can react to
// workflow progress.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types emitted over the transfer lifecycle.
const (
	TypeTransferCreated   = "TRANSFER_CREATED"
	TypeStatusChanged     = "TRANSFER_STATUS_CHANGED"
	TypeTransferCancelled = "TRANSFER_CANCELLED"
	TypeTransferCompleted = "TRANSFER_COMPLETED"
)

// TransferEvent is the wire payload for a lifecycle notification.
type TransferEvent struct {
	EventID                string    `json:"eventId"`
	Type                   string    `json:"type"`
	TransferID             string    `json:"transferId"`
	ReferenceNumber        string    `json:"referenceNumber"`
	SourceWarehouseID      string    `json:"sourceWarehouseId"`
	DestinationWarehouseID string    `json:"destinationWarehouseId"`
	Status                 string    `json:"status"`
	PreviousStatus         string    `json:"previousStatus,omitempty"`
	OccurredAt             time.Time `json:"occurredAt"`
}

// Publisher emits transfer lifecycle events. Publishing is best effort for
// callers; implementations decide their own delivery guarantees.
type Publisher interface {
	Publish(ctx context.Context, event TransferEvent) error
}

// KafkaPublisher writes events to a Kafka topic keyed by transfer id, so
// per-transfer ordering is preserved within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher connects a publisher to the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		logger: logger,
	}
}

// Publish serializes the event and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event TransferEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransferID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("publish transfer event",
			zap.String("type", event.Type),
			zap.String("transfer_id", event.TransferID),
			zap.Error(err))
		return err
	}
	return nil
}

// Close flushes pending messages and releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. Used when no broker is configured and
// in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransferEvent) error { return nil }
