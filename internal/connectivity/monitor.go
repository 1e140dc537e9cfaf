// Package connectivity tracks whether the backend is reachable.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const eventBufferSize = 4

// Pinger checks backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor holds the global offline flag and notifies subscribers on
// every transition.
type Monitor struct {
	mu      sync.Mutex
	offline bool
	subs    map[int]chan bool
	nextID  int
	log     zerolog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the monitor logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.log = l.With().Str("component", "connectivity").Logger() }
}

// WithOffline sets the initial state.
func WithOffline(offline bool) Option {
	return func(m *Monitor) { m.offline = offline }
}

// New creates a monitor, online unless WithOffline says otherwise.
func New(opts ...Option) *Monitor {
	m := &Monitor{subs: make(map[int]chan bool), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Offline reports the current state.
func (m *Monitor) Offline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline
}

// Set updates the state. Subscribers are only notified on change.
func (m *Monitor) Set(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline == offline {
		return
	}
	m.offline = offline
	m.log.Info().Bool("offline", offline).Msg("connectivity changed")
	for _, ch := range m.subs {
		select {
		case ch <- offline:
		default:
			// Drop if buffer full
		}
	}
}

// Subscribe returns a channel receiving the new offline flag on each
// transition, and a function that unsubscribes.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan bool, eventBufferSize)
	m.subs[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Probe pings once and records the outcome.
func (m *Monitor) Probe(ctx context.Context, p Pinger) bool {
	err := p.Ping(ctx)
	if err != nil && ctx.Err() != nil {
		return !m.Offline()
	}
	if err != nil {
		m.log.Debug().Err(err).Msg("probe failed")
	}
	m.Set(err != nil)
	return err == nil
}

// Run probes every interval until ctx is done. A non-positive interval
// probes once and returns.
func (m *Monitor) Run(ctx context.Context, p Pinger, interval time.Duration) {
	m.Probe(ctx, p)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx, p)
		}
	}
}
