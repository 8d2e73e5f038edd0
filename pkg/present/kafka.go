package present

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/energydash/energydash/pkg/types"
	"github.com/segmentio/kafka-go"
)

// SlotEvent is the message published for every slot update.
type SlotEvent struct {
	Slot      types.Slot `json:"slot"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is a SlotWriter that publishes slot updates to a topic,
// keyed by slot so updates to one slot stay ordered.
type KafkaPublisher struct {
	w   messageWriter
	now func() time.Time
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			// flush every slot update right away
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		now: time.Now,
	}
}

// SetSlot implements SlotWriter.
func (k *KafkaPublisher) SetSlot(ctx context.Context, slot types.Slot, text string) error {
	now := k.now()
	b, err := json.Marshal(SlotEvent{Slot: slot, Text: text, Timestamp: now})
	if err != nil {
		return fmt.Errorf("failed to encode slot event: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(slot), Value: b, Time: now}); err != nil {
		return fmt.Errorf("failed to publish slot event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaPublisher) Close() error {
	return k.w.Close()
}
