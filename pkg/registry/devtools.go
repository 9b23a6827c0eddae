package registry

import (
	"context"
	"fmt"
)

// DevToolsNamespace is the namespace of the development handlers.
const DevToolsNamespace = "dev-tools"

// DevContextCount is the number of set_context_n handlers provided by DevTools.
const DevContextCount = 7

type devTools struct{}

// DevTools returns the provider of the development handlers used to prototype
// stories before their business logic exists:
//
//	dev-tools:do_nothing       produces nothing
//	dev-tools:set_context_<n>  sets DEV_CONTEXT_<n> to an explicit absence, n in 1..7
func DevTools() Provider {
	return devTools{}
}

func (devTools) Namespace() string { return DevToolsNamespace }

func (devTools) Handlers() map[string]Handler {
	handlers := map[string]Handler{
		"do_nothing": func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{}, nil
		},
	}
	for n := 1; n <= DevContextCount; n++ {
		name := fmt.Sprintf("DEV_CONTEXT_%d", n)
		handlers[fmt.Sprintf("set_context_%d", n)] = func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{name: nil}, nil
		}
	}
	return handlers
}
