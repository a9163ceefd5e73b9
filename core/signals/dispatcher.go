package signals

import (
	"context"
	"fmt"
	"sync"

	"encoder-pipeline/core/models"
)

// Kind identifies which transcode signal is being sent
type Kind string

const (
	KindProgress Kind = "progress"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
)

// Signal is emitted once per processed notification. Message is the full
// parsed notification payload.
type Signal struct {
	Kind    Kind
	Job     *models.EncodeJob
	Message map[string]interface{}
}

// Listener receives signals. Returning an error stops delivery to the
// listeners registered after it and is reported back to the sender.
type Listener interface {
	HandleSignal(ctx context.Context, sig Signal) error
}

// ListenerFunc adapts a plain function to a Listener
type ListenerFunc func(ctx context.Context, sig Signal) error

func (f ListenerFunc) HandleSignal(ctx context.Context, sig Signal) error {
	return f(ctx, sig)
}

type registration struct {
	kinds    map[Kind]bool // nil means every kind
	listener Listener
}

// Dispatcher fans signals out to registered listeners synchronously, in
// registration order. Nothing is queued or persisted.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []registration
}

// NewDispatcher creates a dispatcher with no listeners
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers l for the given kinds, or for every kind when none
// are given.
func (d *Dispatcher) Subscribe(l Listener, kinds ...Kind) {
	reg := registration{listener: l}
	if len(kinds) > 0 {
		reg.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			reg.kinds[k] = true
		}
	}

	d.mu.Lock()
	d.listeners = append(d.listeners, reg)
	d.mu.Unlock()
}

// Dispatch delivers sig to every interested listener
func (d *Dispatcher) Dispatch(ctx context.Context, sig Signal) error {
	d.mu.RLock()
	listeners := make([]registration, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, reg := range listeners {
		if reg.kinds != nil && !reg.kinds[sig.Kind] {
			continue
		}
		if err := reg.listener.HandleSignal(ctx, sig); err != nil {
			return fmt.Errorf("%s signal listener failed: %w", sig.Kind, err)
		}
	}
	return nil
}
