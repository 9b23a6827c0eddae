// Package kafka provides a ports.Sender publishing the bot messages to a Kafka
// topic, for channel connectors consuming the conversation output asynchronously.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/segmentio/kafka-go"
)

// Compile-time check
var _ ports.Sender = (*Sender)(nil)

// MessageWriter is the subset of *kafka.Writer used by the Sender.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Record is the JSON value of a published message.
type Record struct {
	ConversationID string    `json:"conversation_id"`
	StoryID        string    `json:"story_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	sender.Message
}

// Sender publishes one record per message, keyed by conversation id so that
// the messages of a conversation stay ordered within a partition.
type Sender struct {
	writer  MessageWriter
	storyID string
}

// Option configures the Sender.
type Option func(*Sender)

// WithStoryID tags every record with the story id.
func WithStoryID(id string) Option {
	return func(s *Sender) {
		s.storyID = id
	}
}

// NewWriter creates a synchronous writer for topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    false, // Turn output must be acknowledged before the turn completes
	}
}

// NewSender creates a sender publishing through w.
func NewSender(w MessageWriter, opts ...Option) *Sender {
	s := &Sender{writer: w}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sender) SendByID(ctx context.Context, labelID string, end bool) error {
	return s.publish(ctx, sender.Message{Kind: sender.KindID, Value: labelID, End: end})
}

func (s *Sender) SendPlainText(ctx context.Context, text string, end bool) error {
	return s.publish(ctx, sender.Message{Kind: sender.KindText, Value: text, End: end})
}

func (s *Sender) End(ctx context.Context) error {
	return s.publish(ctx, sender.Message{Kind: sender.KindEnd, End: true})
}

func (s *Sender) publish(ctx context.Context, m sender.Message) error {
	id, ok := domain.ConversationID(ctx)
	if !ok {
		return fmt.Errorf("kafka sender: context carries no conversation id")
	}

	data, err := json.Marshal(Record{
		ConversationID: id,
		StoryID:        s.storyID,
		Timestamp:      time.Now().UTC(),
		Message:        m,
	})
	if err != nil {
		return err
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(id), Value: data}); err != nil {
		return fmt.Errorf("kafka sender: publish: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (s *Sender) Close() error {
	return s.writer.Close()
}
