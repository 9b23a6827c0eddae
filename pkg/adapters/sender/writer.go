package sender

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/tick/pkg/domain"
)

// Labels maps label ids to their text.
type Labels map[string]string

// Writer is a ports.Sender writing one line per message.
// Label ids are resolved through Labels; an unknown id fails with domain.ErrLabelNotFound.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	labels Labels

	// Separator is written when a turn ends. Empty by default.
	Separator string
}

// NewWriter creates a sender writing to out.
func NewWriter(out io.Writer, labels Labels) *Writer {
	return &Writer{out: out, labels: labels}
}

func (w *Writer) SendByID(ctx context.Context, labelID string, end bool) error {
	text, ok := w.labels[labelID]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrLabelNotFound, labelID)
	}
	return w.SendPlainText(ctx, text, end)
}

func (w *Writer) SendPlainText(ctx context.Context, text string, end bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintln(w.out, text); err != nil {
		return err
	}
	if end {
		return w.endLocked()
	}
	return nil
}

func (w *Writer) End(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.endLocked()
}

func (w *Writer) endLocked() error {
	if w.Separator == "" {
		return nil
	}
	_, err := io.WriteString(w.out, w.Separator)
	return err
}
