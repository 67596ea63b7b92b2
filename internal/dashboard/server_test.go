package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/flightbag/internal/clock"
	"github.com/zulandar/flightbag/internal/efb"
	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/gateway"
	"github.com/zulandar/flightbag/internal/kv"
)

type stubSyncer struct{}

func (stubSyncer) MirrorEvent(ctx context.Context, flightID string, ev flight.Event) gateway.Result {
	return gateway.Result{Reason: gateway.ReasonNotConfigured}
}

func (stubSyncer) FetchRoster(ctx context.Context) ([]flight.Flight, gateway.Result) {
	return flight.SampleRoster(), gateway.Result{Reason: gateway.ReasonNotConfigured}
}

func newTestService(t *testing.T) *efb.Service {
	t.Helper()
	svc, err := efb.New(efb.Opts{
		KV:     kv.NewMemoryStore(),
		Syncer: stubSyncer{},
		Clock:  clock.NewFake(time.Date(2026, 1, 17, 20, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("efb.New: %v", err)
	}
	return svc
}

func newTestRouter(t *testing.T) (*gin.Engine, *efb.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	hub := newHub(time.Hour)
	t.Cleanup(svc.Subscribe(hub))
	return newRouter(svc, hub), svc
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestStart_NilService(t *testing.T) {
	err := Start(context.Background(), StartOpts{})
	if err == nil {
		t.Fatal("expected error for nil service")
	}
	if !strings.Contains(err.Error(), "service is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "service is required")
	}
}

func TestRoster_ReturnsSample(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/roster", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got struct {
		Flights []flight.Flight `json:"flights"`
	}
	decode(t, w, &got)
	if len(got.Flights) != 2 || got.Flights[0].ID != "f001" {
		t.Errorf("flights = %+v, want sample roster", got.Flights)
	}
}

func TestRosterRefresh_ReportsSampleSource(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/roster/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got struct {
		Source string `json:"source"`
	}
	decode(t, w, &got)
	if got.Source != "sample" {
		t.Errorf("source = %q, want sample", got.Source)
	}
}

func TestFlight_View(t *testing.T) {
	router, svc := newTestRouter(t)
	if _, err := svc.RecordEvent(context.Background(), "f001", "START", ""); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	w := do(t, router, http.MethodGet, "/api/flights/f001", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got efb.FlightView
	decode(t, w, &got)
	if got.Flight.Callsign != "VAM123" {
		t.Errorf("callsign = %q, want VAM123", got.Flight.Callsign)
	}
	if got.Phase.Key != "START" || len(got.Events) != 1 {
		t.Errorf("phase = %+v, events = %d", got.Phase, len(got.Events))
	}
}

func TestFlight_Unknown404(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/flights/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var got map[string]string
	decode(t, w, &got)
	if !strings.Contains(got["error"], "not in the roster") {
		t.Errorf("error = %q", got["error"])
	}
}

func TestRecordEvent(t *testing.T) {
	router, svc := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/flights/f002/events", `{"type":" takeoff ","note":"rwy 36L"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}
	var ev flight.Event
	decode(t, w, &ev)
	if ev.Type != flight.EventTakeoff || ev.Note != "rwy 36L" {
		t.Errorf("event = %+v", ev)
	}

	events, _ := svc.GetEventLog("f002")
	if len(events) != 1 {
		t.Errorf("log length = %d, want 1", len(events))
	}
}

func TestRecordEvent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing body", "/api/flights/f001/events", "", http.StatusBadRequest},
		{"missing type", "/api/flights/f001/events", `{"note":"x"}`, http.StatusBadRequest},
		{"blank type", "/api/flights/f001/events", `{"type":"   "}`, http.StatusBadRequest},
		{"unknown flight", "/api/flights/zzz/events", `{"type":"START"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)
			w := do(t, router, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestSelect(t *testing.T) {
	router, svc := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/flights/f002/select", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := svc.Session().SelectedFlight(); got != "f002" {
		t.Errorf("selected = %q, want f002", got)
	}

	w = do(t, router, http.MethodPost, "/api/flights/nope/select", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown select status = %d, want 404", w.Code)
	}
}

func TestSim_StartStatusStop(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/sim/f002/start", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("start status = %d, want 202", w.Code)
	}

	w = do(t, router, http.MethodGet, "/api/sim", "")
	var status struct {
		Running  bool   `json:"running"`
		FlightID string `json:"flightId"`
	}
	decode(t, w, &status)
	if !status.Running || status.FlightID != "f002" {
		t.Errorf("status = %+v, want running f002", status)
	}

	w = do(t, router, http.MethodPost, "/api/sim/stop", "")
	var stopped map[string]bool
	decode(t, w, &stopped)
	if !stopped["stopped"] {
		t.Error("stop should report a running feed")
	}

	w = do(t, router, http.MethodPost, "/api/sim/stop", "")
	decode(t, w, &stopped)
	if stopped["stopped"] {
		t.Error("second stop should report nothing running")
	}
}

func TestSim_StartUnknown404(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/sim/nope/start", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	router, _ := newTestRouter(t)
	if w := do(t, router, http.MethodGet, "/nonexistent", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// --- SSE ---

type sseFrame struct {
	event string
	data  string
}

func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return f
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, heartbeat time.Duration) (*efb.Service, *hub, *bufio.Reader) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	h := newHub(heartbeat)
	unsubscribe := svc.Subscribe(h)
	srv := httptest.NewServer(newRouter(svc, h))

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
		h.close()
		srv.Close()
		unsubscribe()
	})

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}
	r := bufio.NewReader(resp.Body)
	if f := readFrame(t, r); f.event != "connected" {
		t.Fatalf("first event = %q, want connected", f.event)
	}
	return svc, h, r
}

func TestStream_RefreshOnEvent(t *testing.T) {
	svc, _, r := openStream(t, time.Hour)

	if _, err := svc.RecordEvent(context.Background(), "f001", "OFFBLOCK", ""); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	f := readFrame(t, r)
	if f.event != "refresh" {
		t.Fatalf("event = %q, want refresh", f.event)
	}
	var c efb.Change
	if err := json.Unmarshal([]byte(f.data), &c); err != nil {
		t.Fatalf("decode change: %v", err)
	}
	if c.Kind != efb.ChangeEvent || c.FlightID != "f001" || c.Event == nil || c.Event.Type != flight.EventOffblock {
		t.Errorf("change = %+v", c)
	}
}

func TestStream_Heartbeat(t *testing.T) {
	_, _, r := openStream(t, 10*time.Millisecond)

	f := readFrame(t, r)
	if f.event != "heartbeat" {
		t.Fatalf("event = %q, want heartbeat", f.event)
	}
	if !strings.Contains(f.data, "timestamp") {
		t.Errorf("data = %q, want timestamp", f.data)
	}
}

func TestStream_UnsubscribesOnDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	h := newHub(time.Hour)
	srv := httptest.NewServer(newRouter(svc, h))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream: %v", err)
	}
	readFrame(t, bufio.NewReader(resp.Body))
	if n := h.clientCount(); n != 1 {
		t.Fatalf("clients = %d, want 1", n)
	}

	cancel()
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.clientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := h.clientCount(); n != 0 {
		t.Errorf("clients = %d after disconnect, want 0", n)
	}
}

func TestHub_RefreshNeverBlocks(t *testing.T) {
	h := newHub(time.Hour)
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*3; i++ {
			h.Refresh(efb.Change{Kind: efb.ChangeRoster})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Refresh blocked on a full client buffer")
	}
	if len(ch) != clientBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), clientBuffer)
	}
}

func TestHub_CloseIdempotent(t *testing.T) {
	h := newHub(time.Hour)
	h.close()
	h.close()
}
