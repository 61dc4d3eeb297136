package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is how often an armed monitor beats
const DefaultInterval = 60 * time.Second

// TickFunc runs on every beat. ctx is cancelled as soon as the monitor is disarmed.
type TickFunc func(ctx context.Context)

// Monitor is the expiry watchdog. It is either disarmed or armed with exactly one live handle.
type Monitor struct {
	interval time.Duration
	clock    Clock
	onTick   TickFunc

	lock      sync.Mutex
	armed     bool
	handleID  string
	cancel    context.CancelFunc
	heartbeat atomic.Uint64
}

// Option configures a Monitor
type Option func(*Monitor)

// WithInterval sets the time between beats
func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		m.interval = interval
	}
}

// WithClock replaces the wall clock, tests pass a fake one
func WithClock(clock Clock) Option {
	return func(m *Monitor) {
		m.clock = clock
	}
}

// New returns a disarmed monitor. onTick may be nil, in which case the monitor only beats.
func New(onTick TickFunc, options ...Option) *Monitor {
	m := &Monitor{
		interval: DefaultInterval,
		clock:    SystemClock{},
		onTick:   onTick,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.clock == nil {
		m.clock = SystemClock{}
	}
	return m
}

// Arm starts the recurring beat. Arming an armed monitor does nothing.
func (m *Monitor) Arm() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.armed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ticker := m.clock.NewTicker(m.interval)
	m.armed = true
	m.cancel = cancel
	m.handleID = uuid.New().String()

	log.Debug().Str("handle", m.handleID).Dur("interval", m.interval).Msg("expiry monitor armed")
	go m.run(ctx, ticker)
}

// Disarm cancels the beat. It never waits for the ticking goroutine,
// so it is safe to call from inside a TickFunc and safe to call when disarmed.
func (m *Monitor) Disarm() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.armed {
		return
	}

	m.cancel()
	log.Debug().Str("handle", m.handleID).Msg("expiry monitor disarmed")
	m.armed = false
	m.cancel = nil
	m.handleID = ""
}

// Armed reports whether a handle is live
func (m *Monitor) Armed() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.armed
}

// HandleID identifies the live handle, empty while disarmed
func (m *Monitor) HandleID() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.handleID
}

// Heartbeat counts beats across all handles
func (m *Monitor) Heartbeat() uint64 {
	return m.heartbeat.Load()
}

// Interval is the configured time between beats
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

func (m *Monitor) run(ctx context.Context, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			// A beat racing a disarm is dropped.
			if ctx.Err() != nil {
				return
			}
			m.heartbeat.Add(1)
			if m.onTick != nil {
				m.onTick(ctx)
			}
		}
	}
}
