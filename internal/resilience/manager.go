// Package resilience watches a remote connection and drives recovery when
// it degrades: periodic health probes, a single-flight reconnect cycle with
// capped exponential backoff, and an escalation path for client-state
// corruption that tears down every listener before retrying.
package resilience

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the connection lifecycle state
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateReconnecting
	StateUnrecoverable
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateReconnecting:
		return "reconnecting"
	case StateUnrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// EventType marks what happened in a lifecycle transition
type EventType string

const (
	EventDegraded      EventType = "degraded"
	EventReconnecting  EventType = "reconnecting"
	EventReconnected   EventType = "reconnected"
	EventUnrecoverable EventType = "unrecoverable"
)

// Event is delivered to registered listeners on every transition
type Event struct {
	Type  EventType
	State State
	Err   error
}

// Conn is the connection surface the manager drives. The remote store
// implements it.
type Conn interface {
	Ping(ctx context.Context) error
	TeardownListeners()
	Disable() error
	Enable() error
}

const (
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 5 * time.Second
	defaultSettleDelay   = 2 * time.Second
	defaultMaxRetries    = 3

	backoffBase = time.Second
	backoffCap  = 10 * time.Second

	retryBase = time.Second
	retryCap  = 5 * time.Second
	opRetries = 3
)

// Manager supervises one Conn
type Manager struct {
	conn Conn
	log  *zap.Logger

	probeInterval time.Duration
	probeTimeout  time.Duration
	settleDelay   time.Duration
	maxRetries    int

	// sleep is injectable so tests can observe delays without waiting
	sleep func(time.Duration)

	mu           sync.Mutex
	state        State
	retryCount   int
	reconnecting bool
	listeners    []func(Event)

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// Option tweaks manager construction
type Option func(*Manager)

// WithProbeInterval overrides the health probe cadence
func WithProbeInterval(d time.Duration) Option {
	return func(m *Manager) { m.probeInterval = d }
}

// WithProbeTimeout overrides the per-probe deadline
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Manager) { m.probeTimeout = d }
}

// WithSettleDelay overrides the pause between network disable and enable
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) { m.settleDelay = d }
}

// WithSleep replaces the sleep function, used by tests
func WithSleep(fn func(time.Duration)) Option {
	return func(m *Manager) { m.sleep = fn }
}

// NewManager builds a manager over conn; call Start to begin probing
func NewManager(conn Conn, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		conn:          conn,
		log:           log,
		probeInterval: defaultProbeInterval,
		probeTimeout:  defaultProbeTimeout,
		settleDelay:   defaultSettleDelay,
		maxRetries:    defaultMaxRetries,
		sleep:         time.Sleep,
		state:         StateHealthy,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnEvent registers a listener for lifecycle transitions. Listeners are
// invoked synchronously from the transition path and must not block.
func (m *Manager) OnEvent(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	listeners := make([]func(Event), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Start launches the periodic health probe loop
func (m *Manager) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.probe()
			}
		}
	}()
}

// Stop shuts the probe loop down and waits for any in-flight reconnect
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

// probe runs one health check; a failure degrades the connection and
// triggers recovery
func (m *Manager) probe() {
	m.mu.Lock()
	if m.state == StateUnrecoverable {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
	err := m.conn.Ping(ctx)
	cancel()
	if err == nil {
		return
	}

	m.log.Warn("health probe failed", zap.Error(err))
	m.degrade(err)
}

// ReportError lets callers feed operation failures into the manager.
// Connection-class errors degrade the connection; the internal assertion
// class additionally tears down every listener first, since a corrupted
// client cannot recover while they hold state.
func (m *Manager) ReportError(err error) {
	if err == nil {
		return
	}
	if IsInternalAssertion(err) {
		m.log.Error("internal assertion failure, tearing down listeners", zap.Error(err))
		m.conn.TeardownListeners()
		m.degrade(err)
		return
	}
	if IsConnectionError(err) {
		m.degrade(err)
	}
}

func (m *Manager) degrade(err error) {
	m.mu.Lock()
	if m.state == StateUnrecoverable {
		m.mu.Unlock()
		return
	}
	if m.state == StateHealthy {
		m.state = StateDegraded
	}
	// Single-flight guard: concurrent triggers are dropped
	if m.reconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	m.mu.Unlock()

	m.emit(Event{Type: EventDegraded, State: StateDegraded, Err: err})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reconnectCycle()
	}()
}

// reconnectCycle retries until the connection recovers or the retry budget
// is exhausted. The counter is bumped before computing the delay, so the
// waits run 2s, 4s, 8s.
func (m *Manager) reconnectCycle() {
	defer func() {
		m.mu.Lock()
		m.reconnecting = false
		m.mu.Unlock()
	}()

	for {
		select {
		case <-m.stop:
			return
		default:
		}

		m.mu.Lock()
		m.retryCount++
		retry := m.retryCount
		m.state = StateReconnecting
		m.mu.Unlock()

		delay := backoffDelay(retry)
		m.log.Info("scheduling reconnect attempt",
			zap.Int("attempt", retry),
			zap.Duration("delay", delay),
		)
		m.emit(Event{Type: EventReconnecting, State: StateReconnecting})
		m.sleep(delay)

		if m.attemptReconnect() {
			m.mu.Lock()
			m.retryCount = 0
			m.state = StateHealthy
			m.mu.Unlock()
			m.log.Info("connection recovered", zap.Int("attempts", retry))
			m.emit(Event{Type: EventReconnected, State: StateHealthy})
			return
		}

		if retry >= m.maxRetries {
			m.mu.Lock()
			m.state = StateUnrecoverable
			m.mu.Unlock()
			m.log.Error("connection unrecoverable, retries exhausted",
				zap.Int("attempts", retry),
			)
			m.emit(Event{Type: EventUnrecoverable, State: StateUnrecoverable})
			return
		}
	}
}

// attemptReconnect runs one full recovery attempt: drop all listeners,
// bounce the network with a settle pause in between, then probe.
func (m *Manager) attemptReconnect() bool {
	m.conn.TeardownListeners()
	if err := m.conn.Disable(); err != nil {
		m.log.Warn("network disable failed", zap.Error(err))
	}
	m.sleep(m.settleDelay)
	if err := m.conn.Enable(); err != nil {
		m.log.Warn("network enable failed", zap.Error(err))
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
	defer cancel()
	if err := m.conn.Ping(ctx); err != nil {
		m.log.Warn("reconnect probe failed", zap.Error(err))
		return false
	}
	return true
}

// backoffDelay is the reconnect wait for the given attempt number,
// 1000ms * 2^attempt capped at 10s
func backoffDelay(attempt int) time.Duration {
	d := backoffBase << uint(attempt)
	if d > backoffCap {
		return backoffCap
	}
	return d
}
