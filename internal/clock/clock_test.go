package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 17, 20, 0, 0, 0, time.UTC)

func TestFake_RunsDueTasksInOrder(t *testing.T) {
	c := NewFake(epoch)
	var order []string
	c.AfterFunc(10*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(5*time.Second, func() { order = append(order, "a") })
	c.AfterFunc(30*time.Second, func() { order = append(order, "c") })

	c.Advance(10 * time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
	if !c.Now().Equal(epoch.Add(10 * time.Second)) {
		t.Errorf("Now() = %v, want +10s", c.Now())
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
}

func TestFake_StopPreventsRun(t *testing.T) {
	c := NewFake(epoch)
	ran := false
	timer := c.AfterFunc(time.Second, func() { ran = true })
	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	c.Advance(time.Minute)
	if ran {
		t.Error("stopped task ran")
	}
}

func TestFake_ChainedScheduling(t *testing.T) {
	c := NewFake(epoch)
	var at []time.Duration
	var step func()
	step = func() {
		at = append(at, c.Now().Sub(epoch))
		if len(at) < 3 {
			c.AfterFunc(4*time.Second, step)
		}
	}
	c.AfterFunc(0, step)

	c.Advance(20 * time.Second)
	want := []time.Duration{0, 4 * time.Second, 8 * time.Second}
	if len(at) != len(want) {
		t.Fatalf("ran %d times, want %d", len(at), len(want))
	}
	for i := range want {
		if at[i] != want[i] {
			t.Errorf("run %d at %v, want %v", i, at[i], want[i])
		}
	}
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
}
