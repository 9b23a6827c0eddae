package domain

import "context"

type conversationKey struct{}

// WithConversationID returns a context carrying the id of the conversation
// being processed. Adapters shared across conversations read it back to route
// their output.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

// ConversationID returns the conversation id carried by ctx, if any.
func ConversationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(conversationKey{}).(string)
	return id, ok && id != ""
}
