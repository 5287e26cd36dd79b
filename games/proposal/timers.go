package proposal

import (
	"sync"
	"time"
)

// Timer is the handle returned by a Clock.
type Timer interface {
	Stop() bool
}

// Clock schedules f to run after d on some other goroutine.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by time.AfterFunc.
var RealClock Clock = realClock{}

type pendingTimer struct {
	id    uint64
	timer Timer
}

// Timers tracks the named timers of one session. Fired callbacks are handed
// to dispatch, which should run them on the goroutine that owns the session.
// A callback whose timer was cancelled or superseded by then is dropped.
//
// The bookkeeping is locked, so a nil dispatch (callbacks run straight on
// the clock's goroutine) is race free as far as Timers goes; the callbacks
// themselves still need whatever the session owner uses.
type Timers struct {
	clock    Clock
	dispatch func(func())

	mu      sync.Mutex
	next    uint64
	pending map[string]pendingTimer
}

func NewTimers(clock Clock, dispatch func(func())) *Timers {
	if clock == nil {
		clock = RealClock
	}
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}

	return &Timers{
		clock:    clock,
		dispatch: dispatch,
		pending:  make(map[string]pendingTimer),
	}
}

// After schedules fn under name, cancelling any timer already using it.
func (t *Timers) After(name string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked(name)

	t.next++
	id := t.next

	timer := t.clock.AfterFunc(d, func() {
		t.dispatch(func() {
			if t.claim(name, id) {
				fn()
			}
		})
	})

	t.pending[name] = pendingTimer{id: id, timer: timer}
}

// claim removes the pending entry for name if it still belongs to id.
func (t *Timers) claim(name string, id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[name]
	if !ok || p.id != id {
		return false
	}
	delete(t.pending, name)

	return true
}

func (t *Timers) cancelLocked(name string) {
	if p, ok := t.pending[name]; ok {
		p.timer.Stop()
		delete(t.pending, name)
	}
}

func (t *Timers) Cancel(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked(name)
}

// CancelAll runs whenever the session leaves a stage.
func (t *Timers) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for name := range t.pending {
		t.cancelLocked(name)
	}
}

func (t *Timers) Pending(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.pending[name]
	return ok
}

func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pending)
}
