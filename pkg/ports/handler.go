package ports

import "context"

// HandlerRepository runs business logic by handler name.
//
// Invoke receives a snapshot of the session contexts and returns the produced
// values; a nil value is an explicit absence. The processor invokes a handler at
// most once per action per turn. Failures abort the turn, retries are a caller
// concern.
type HandlerRepository interface {
	Invoke(ctx context.Context, handler string, contexts map[string]any) (map[string]any, error)
}

// HandlerCatalog is implemented by repositories able to tell, ahead of time,
// whether a handler exists. It is used to validate configurations at load time.
type HandlerCatalog interface {
	Has(handler string) bool
}
