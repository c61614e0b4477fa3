package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/phrazzld/shop-api/internal/redact"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// InMemoryEventEmitter runs subscribed handlers synchronously on the
// caller's goroutine. The server uses it when no Kafka brokers are set.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	logger   *slog.Logger
}

func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make(map[string][]EventHandler),
		logger:   logger.With("component", "event_emitter"),
	}
}

// Subscribe registers handler for events of the given type, or for every
// event when eventType is AllEvents. Typed subscribers run before wildcard
// ones, each group in subscription order.
func (e *InMemoryEventEmitter) Subscribe(eventType string, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[eventType] = append(e.handlers[eventType], handler)
	e.logger.Debug("registered event handler",
		"event_type", eventType,
		"handler_count", len(e.handlers[eventType]))
}

// EmitEvent delivers event to every matching handler. All handlers run even
// if some fail; their errors are joined. A panicking handler is reported as
// an error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	handlers := e.handlersFor(event.Type)
	if len(handlers) == 0 {
		e.logger.Debug("event has no subscribers",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	var errs []error
	for i, handler := range handlers {
		if err := e.dispatch(ctx, handler, event); err != nil {
			e.logger.Error("event handler failed",
				"error", redact.Error(err),
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *InMemoryEventEmitter) handlersFor(eventType string) []EventHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()

	typed, wildcard := e.handlers[eventType], e.handlers[AllEvents]
	out := make([]EventHandler, 0, len(typed)+len(wildcard))
	out = append(out, typed...)
	return append(out, wildcard...)
}

func (e *InMemoryEventEmitter) dispatch(ctx context.Context, handler EventHandler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked",
				"event_type", event.Type,
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return handler.HandleEvent(ctx, event)
}
