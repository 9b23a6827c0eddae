package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/tick/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
			// Context cancelled elsewhere
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnter: func(ctx context.Context, e *domain.ActionEvent) {
			logger.Debug("Enter Action", "action", e.Action, "objective", e.Objective)
		},
		OnActionLeave: func(ctx context.Context, e *domain.ActionEvent) {
			logger.Debug("Leave Action", "action", e.Action, "silent", e.Silent)
		},
		OnHandlerCall: func(ctx context.Context, e *domain.HandlerEvent) {
			logger.Debug("Handler Call", "handler", e.Handler, "action", e.Action)
		},
		OnHandlerReturn: func(ctx context.Context, e *domain.HandlerEvent) {
			if e.IsError {
				logger.Debug("Handler Return (Error)", "handler", e.Handler)
			} else {
				logger.Debug("Handler Return (Success)", "handler", e.Handler, "output", e.Output)
			}
		},
		OnUnknown: func(ctx context.Context, e *domain.UnknownEvent) {
			logger.Debug("Unknown Intent", "action", e.Action, "repeated", e.Repeated, "exited", e.Exited)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
