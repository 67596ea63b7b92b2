// Package clock abstracts wall time and cancellable scheduled tasks so the
// feed simulator can run against real timers in production and a virtual
// clock in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a handle to a scheduled task.
type Timer interface {
	// Stop cancels the task. It reports whether the call prevented the task
	// from running.
	Stop() bool
}

// Clock tells time and schedules tasks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall clock backed by time.AfterFunc.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a virtual clock. Time only moves when Advance is called, and due
// tasks run synchronously on the caller's goroutine in deadline order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	seq   int
	f     func()
	done  bool
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.tasks = append(c.tasks, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward by d, running every task that falls due,
// including tasks scheduled by tasks that run during the advance.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// nextDueLocked pops the earliest pending task due at or before target.
func (c *Fake) nextDueLocked(target time.Time) *fakeTimer {
	live := c.tasks[:0]
	for _, t := range c.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	c.tasks = live
	sort.Slice(c.tasks, func(i, j int) bool {
		if c.tasks[i].at.Equal(c.tasks[j].at) {
			return c.tasks[i].seq < c.tasks[j].seq
		}
		return c.tasks[i].at.Before(c.tasks[j].at)
	})
	if len(c.tasks) == 0 || c.tasks[0].at.After(target) {
		return nil
	}
	return c.tasks[0]
}

// Pending returns the number of scheduled tasks that have not run or been
// stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tasks {
		if !t.done {
			n++
		}
	}
	return n
}
