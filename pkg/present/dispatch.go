package present

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Command names a user action.
type Command string

// Commands the dashboard responds to.
const (
	// CommandPeriod reloads analytics for a new number of days.
	CommandPeriod Command = "period"
	// CommandPredict generates a prediction for a number of days.
	CommandPredict Command = "predict"
	// CommandRefresh re-polls every source immediately.
	CommandRefresh Command = "refresh"
)

// ErrUnknownCommand is returned by Dispatch when nothing handles a command.
var ErrUnknownCommand = errors.New("unknown command")

// Event is one user action.
type Event struct {
	Command Command `json:"command"`
	Days    int     `json:"days,omitempty"`
}

// Handler handles an Event.
type Handler func(ctx context.Context, ev Event) error

// EventSource is where command handlers are registered.
type EventSource interface {
	Subscribe(cmd Command, h Handler)
}

// Dispatcher routes events to their handler. It implements EventSource.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Command]Handler
}

// NewDispatcher returns a Dispatcher with no handlers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Command]Handler)}
}

// Subscribe registers h for cmd, replacing any previous handler.
func (d *Dispatcher) Subscribe(cmd Command, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[cmd] = h
}

// Dispatch runs the handler registered for ev.Command.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.mu.RLock()
	h, ok := d.handlers[ev.Command]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, ev.Command)
	}
	return h(ctx, ev)
}

// Commands lists the registered commands.
func (d *Dispatcher) Commands() []Command {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Command, 0, len(d.handlers))
	for c := range d.handlers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
