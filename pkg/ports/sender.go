package ports

import "context"

// Sender delivers messages to the user. end marks the message closing the
// current turn's response. Batching is left to the implementation.
type Sender interface {
	SendByID(ctx context.Context, labelID string, end bool) error
	SendPlainText(ctx context.Context, text string, end bool) error
	// End closes the turn without any message.
	End(ctx context.Context) error
}
