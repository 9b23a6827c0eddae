package sender

import (
	"context"
	"sync"
)

// Kind tells how a recorded message was sent.
type Kind string

const (
	KindID   Kind = "id"
	KindText Kind = "text"
	KindEnd  Kind = "end"
)

// Message is one delivery recorded by Recorder.
type Message struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value,omitempty"`
	End   bool   `json:"end"`
}

// Recorder is a ports.Sender keeping every message in order.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendByID(_ context.Context, labelID string, end bool) error {
	r.record(Message{Kind: KindID, Value: labelID, End: end})
	return nil
}

func (r *Recorder) SendPlainText(_ context.Context, text string, end bool) error {
	r.record(Message{Kind: KindText, Value: text, End: end})
	return nil
}

func (r *Recorder) End(_ context.Context) error {
	r.record(Message{Kind: KindEnd, End: true})
	return nil
}

func (r *Recorder) record(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// IDs returns the label ids sent, in order.
func (r *Recorder) IDs() []string {
	var ids []string
	for _, m := range r.Messages() {
		if m.Kind == KindID {
			ids = append(ids, m.Value)
		}
	}
	return ids
}

// Reset discards the recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// Discard is a ports.Sender dropping every message.
var Discard discard

type discard struct{}

func (discard) SendByID(context.Context, string, bool) error      { return nil }
func (discard) SendPlainText(context.Context, string, bool) error { return nil }
func (discard) End(context.Context) error                         { return nil }
