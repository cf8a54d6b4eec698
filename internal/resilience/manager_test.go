package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConn scripts ping outcomes and records lifecycle calls
type fakeConn struct {
	mu        sync.Mutex
	pingErrs  []error
	pings     int
	teardowns int
	disables  int
	enables   int
}

func (f *fakeConn) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	if len(f.pingErrs) == 0 {
		return nil
	}
	err := f.pingErrs[0]
	f.pingErrs = f.pingErrs[1:]
	return err
}

func (f *fakeConn) TeardownListeners() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teardowns++
}

func (f *fakeConn) Disable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disables++
	return nil
}

func (f *fakeConn) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables++
	return nil
}

func (f *fakeConn) counts() (teardowns, disables, enables int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teardowns, f.disables, f.enables
}

// sleepRecorder captures requested delays without actually waiting
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

func newTestManager(conn *fakeConn) (*Manager, *sleepRecorder, chan Event) {
	rec := &sleepRecorder{}
	m := NewManager(conn, zap.NewNop(),
		WithSleep(rec.sleep),
		WithSettleDelay(time.Millisecond),
	)
	events := make(chan Event, 32)
	m.OnEvent(func(ev Event) { events <- ev })
	return m, rec, events
}

func waitFor(t *testing.T, events chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

var errNetDown = errors.New("network unreachable")

func TestReconnectBackoffSchedule(t *testing.T) {
	conn := &fakeConn{pingErrs: []error{errNetDown, errNetDown, errNetDown}}
	m, rec, events := newTestManager(conn)

	m.ReportError(errNetDown)
	waitFor(t, events, EventUnrecoverable)

	assert.Equal(t, StateUnrecoverable, m.State())

	// Waits alternate reconnect backoff and the settle pause:
	// 2s, settle, 4s, settle, 8s, settle
	want := []time.Duration{
		2 * time.Second, time.Millisecond,
		4 * time.Second, time.Millisecond,
		8 * time.Second, time.Millisecond,
	}
	assert.Equal(t, want, rec.recorded())

	teardowns, disables, enables := conn.counts()
	assert.Equal(t, 3, teardowns)
	assert.Equal(t, 3, disables)
	assert.Equal(t, 3, enables)
}

func TestReconnectSuccessResetsRetryCounter(t *testing.T) {
	conn := &fakeConn{pingErrs: []error{errNetDown}}
	m, rec, events := newTestManager(conn)

	m.ReportError(errNetDown)
	waitFor(t, events, EventReconnected)
	assert.Equal(t, StateHealthy, m.State())

	// Second outage starts the backoff ladder from the bottom again
	conn.mu.Lock()
	conn.pingErrs = []error{errNetDown}
	conn.mu.Unlock()

	m.ReportError(errNetDown)
	waitFor(t, events, EventReconnected)

	delays := rec.recorded()
	var backoffs []time.Duration
	for _, d := range delays {
		if d >= time.Second {
			backoffs = append(backoffs, d)
		}
	}
	// First outage: 2s then 4s; second outage: 2s then 4s
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second,
		2 * time.Second, 4 * time.Second,
	}, backoffs)
}

func TestConcurrentTriggersCoalesce(t *testing.T) {
	conn := &fakeConn{}
	m, _, events := newTestManager(conn)

	var mu sync.Mutex
	degraded := 0
	m.OnEvent(func(ev Event) {
		if ev.Type == EventDegraded {
			mu.Lock()
			degraded++
			mu.Unlock()
		}
	})

	for i := 0; i < 5; i++ {
		m.ReportError(errNetDown)
	}
	waitFor(t, events, EventReconnected)
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, degraded, "only the first trigger should start a cycle")
}

func TestNonConnectionErrorsIgnored(t *testing.T) {
	conn := &fakeConn{}
	m, rec, _ := newTestManager(conn)

	m.ReportError(errors.New("title must not be empty"))
	m.Stop()

	assert.Equal(t, StateHealthy, m.State())
	assert.Empty(t, rec.recorded())
	teardowns, _, _ := conn.counts()
	assert.Zero(t, teardowns)
}

func TestInternalAssertionTearsDownBeforeReconnect(t *testing.T) {
	conn := &fakeConn{}
	m, _, events := newTestManager(conn)

	m.ReportError(errors.New("FIRESTORE (1.2.3) INTERNAL ASSERTION FAILED: unexpected state"))
	waitFor(t, events, EventReconnected)
	m.Stop()

	// One teardown immediately on the severe error, one in the attempt
	teardowns, _, _ := conn.counts()
	assert.Equal(t, 2, teardowns)
}

func TestExecuteWithRetryRecoversConnectionErrors(t *testing.T) {
	conn := &fakeConn{}
	m, rec, _ := newTestManager(conn)

	calls := 0
	err := m.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errNetDown
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.recorded())
}

func TestExecuteWithRetryStopsOnNonConnectionError(t *testing.T) {
	conn := &fakeConn{}
	m, rec, _ := newTestManager(conn)

	wantErr := errors.New("duplicate record")
	calls := 0
	err := m.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.recorded())
}

func TestExecuteWithRetryExhaustsBudget(t *testing.T) {
	conn := &fakeConn{}
	m, _, _ := newTestManager(conn)

	calls := 0
	err := m.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return errNetDown
	})
	assert.ErrorIs(t, err, errNetDown)
	assert.Equal(t, 3, calls)
}
