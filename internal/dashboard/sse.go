package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/flightbag/internal/efb"
)

const (
	defaultHeartbeat = 15 * time.Second
	// clientBuffer is how many changes a slow client may lag before
	// changes are dropped for it.
	clientBuffer = 16
)

// hub fans service changes out to connected SSE clients. It is an
// efb.Listener; Refresh never blocks.
type hub struct {
	heartbeat time.Duration

	mu      sync.Mutex
	clients map[chan efb.Change]struct{}
	done    chan struct{}
	closed  bool
}

func newHub(heartbeat time.Duration) *hub {
	return &hub{
		heartbeat: heartbeat,
		clients:   make(map[chan efb.Change]struct{}),
		done:      make(chan struct{}),
	}
}

// Refresh implements efb.Listener.
func (h *hub) Refresh(c efb.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- c:
		default:
			log.Printf("dashboard: sse client lagging, dropped %s change", c.Kind)
		}
	}
}

func (h *hub) subscribe() chan efb.Change {
	ch := make(chan efb.Change, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan efb.Change) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// close ends every open stream so server shutdown is not held up.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleStream writes a "refresh" event per change plus periodic heartbeats
// until the client goes away.
func (h *hub) handleStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case change := <-ch:
			writeSSE(c.Writer, "refresh", change)
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
