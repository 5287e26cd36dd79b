package proposal

import (
	"context"
	"sort"
	"time"

	"github.com/Seednode/valentine/sink"
)

// scriptedRand returns its values in order, then zeros.
type scriptedRand struct {
	values []int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

type fakeTimer struct {
	due     time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock fires timers only when Advance is called.
type fakeClock struct {
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.seq++
	t := &fakeTimer{due: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	target := c.now + d

	for {
		var live []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.due <= target {
				live = append(live, t)
			}
		}
		if len(live) == 0 {
			break
		}

		sort.Slice(live, func(i, j int) bool {
			if live[i].due == live[j].due {
				return live[i].seq < live[j].seq
			}
			return live[i].due < live[j].due
		})

		next := live[0]
		c.now = next.due
		next.fired = true
		next.f()
	}

	c.now = target
}

type recordingSink struct {
	err   error
	calls int
	saved []sink.Submission
}

func (s *recordingSink) Submit(_ context.Context, sub sink.Submission) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, sub)
	return nil
}
