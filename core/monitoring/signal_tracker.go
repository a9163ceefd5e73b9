package monitoring

import (
	"context"
	"sync"
	"time"

	"encoder-pipeline/core/signals"
)

// SignalTracker keeps running per-kind totals of dispatched signals
type SignalTracker struct {
	counts   map[signals.Kind]int64
	lastSeen map[signals.Kind]time.Time
	mu       sync.RWMutex
}

// NewSignalTracker creates an empty tracker
func NewSignalTracker() *SignalTracker {
	return &SignalTracker{
		counts:   make(map[signals.Kind]int64),
		lastSeen: make(map[signals.Kind]time.Time),
	}
}

// HandleSignal records one signal
func (st *SignalTracker) HandleSignal(ctx context.Context, sig signals.Signal) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.counts[sig.Kind]++
	st.lastSeen[sig.Kind] = time.Now()
	return nil
}

// Count returns how many signals of kind were seen
func (st *SignalTracker) Count(kind signals.Kind) int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.counts[kind]
}

// Snapshot returns a copy of the per-kind totals
func (st *SignalTracker) Snapshot() map[signals.Kind]int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make(map[signals.Kind]int64, len(st.counts))
	for k, v := range st.counts {
		out[k] = v
	}
	return out
}
