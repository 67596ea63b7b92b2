package roster

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/gateway"
)

type mockFetcher struct {
	mu      sync.Mutex
	flights []flight.Flight
	result  gateway.Result
	calls   int
}

func (m *mockFetcher) FetchRoster(ctx context.Context) ([]flight.Flight, gateway.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.flights, m.result
}

func TestNew_RequiresFetcher(t *testing.T) {
	if _, err := New(Opts{}); err == nil {
		t.Fatal("expected error for missing fetcher")
	}
}

func TestCurrent_SampleBeforeRefresh(t *testing.T) {
	c, _ := New(Opts{Fetcher: &mockFetcher{}})
	got := c.Current()
	if len(got) != 2 || got[0].ID != "f001" || got[1].ID != "f002" {
		t.Errorf("Current() = %+v, want sample roster", got)
	}
	if !c.RefreshedAt().IsZero() {
		t.Error("RefreshedAt() should be zero before any refresh")
	}
}

func TestRefresh_ReplacesCache(t *testing.T) {
	f := &mockFetcher{
		flights: []flight.Flight{{ID: "x1", Callsign: "VAM001"}},
		result:  gateway.Result{OK: true, Status: 200},
	}
	var notified []flight.Flight
	c, _ := New(Opts{Fetcher: f, OnRefresh: func(fl []flight.Flight, r gateway.Result) { notified = fl }})

	got, res := c.Refresh(context.Background())
	if !res.OK {
		t.Errorf("result = %+v, want OK", res)
	}
	if len(got) != 1 || got[0].ID != "x1" {
		t.Errorf("Refresh() = %+v", got)
	}
	if cur := c.Current(); len(cur) != 1 || cur[0].ID != "x1" {
		t.Errorf("Current() = %+v, want refreshed roster", cur)
	}
	if len(notified) != 1 {
		t.Errorf("OnRefresh received %d flights, want 1", len(notified))
	}
	if c.RefreshedAt().IsZero() {
		t.Error("RefreshedAt() not set")
	}
	if !c.LastResult().OK {
		t.Error("LastResult() not recorded")
	}
}

func TestRefresh_EmptyRosterStaysEmpty(t *testing.T) {
	f := &mockFetcher{flights: []flight.Flight{}, result: gateway.Result{OK: true, Status: 200}}
	c, _ := New(Opts{Fetcher: f})
	c.Refresh(context.Background())

	if cur := c.Current(); cur == nil || len(cur) != 0 {
		t.Errorf("Current() = %+v, want empty roster, not sample", cur)
	}
}

func TestRefresh_FallbackIsCached(t *testing.T) {
	f := &mockFetcher{flights: flight.SampleRoster(), result: gateway.Result{Reason: gateway.ReasonTransport}}
	c, _ := New(Opts{Fetcher: f})
	c.Refresh(context.Background())

	if _, ok := c.Find("f002"); !ok {
		t.Error("Find(f002) = false, want sample flight cached")
	}
	if c.LastResult().Reason != gateway.ReasonTransport {
		t.Errorf("LastResult().Reason = %q", c.LastResult().Reason)
	}
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	f := &mockFetcher{flights: []flight.Flight{{ID: "x1"}}, result: gateway.Result{OK: true}}
	c, _ := New(Opts{Fetcher: f})
	c.Refresh(context.Background())

	cur := c.Current()
	cur[0].ID = "mutated"
	if got, _ := c.Find("x1"); got.ID != "x1" {
		t.Error("mutating Current() result changed the cache")
	}
}

func TestFind(t *testing.T) {
	c, _ := New(Opts{Fetcher: &mockFetcher{}})
	fl, ok := c.Find("f001")
	if !ok || fl.Callsign != "VAM123" {
		t.Errorf("Find(f001) = %+v, %v", fl, ok)
	}
	if _, ok := c.Find("nope"); ok {
		t.Error("Find(nope) = true, want false")
	}
}

func TestValidateCron(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/15 * * * *", false},
		{"0 6 * * 1-5", false},
		{"not a cron expr", true},
		{"* * * * * *", true},
	}
	for _, tt := range tests {
		err := ValidateCron(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestSchedule_InvalidExpression(t *testing.T) {
	c, _ := New(Opts{Fetcher: &mockFetcher{}})
	err := c.Schedule(context.Background(), "bogus")
	if err == nil || !strings.Contains(err.Error(), "invalid cron expression") {
		t.Errorf("Schedule error = %v, want invalid cron expression", err)
	}
}

func TestSchedule_StopsWithContext(t *testing.T) {
	f := &mockFetcher{}
	c, _ := New(Opts{Fetcher: f})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Schedule(ctx, "0 0 1 1 *") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Schedule returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Schedule did not return after cancel")
	}
}
