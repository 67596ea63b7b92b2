package telegraph

import "sync"

// Threads remembers, per flight, the platform message its feed thread hangs
// from. Adapters ask it where to post and tell it what they posted.
type Threads struct {
	mu    sync.Mutex
	roots map[string]string
}

// NewThreads returns an empty Threads.
func NewThreads() *Threads {
	return &Threads{roots: make(map[string]string)}
}

// Parent returns the platform message id msg should reply to, or "" to post
// at the top level.
func (t *Threads) Parent(msg OutboundMessage) string {
	if msg.FlightID == "" {
		return ""
	}
	switch msg.Thread {
	case ThreadReply, ThreadClose:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.roots[msg.FlightID]
	}
	return ""
}

// Posted records that msg was delivered as the platform message id.
func (t *Threads) Posted(msg OutboundMessage, id string) {
	if msg.FlightID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch msg.Thread {
	case ThreadOpen:
		if id == "" {
			delete(t.roots, msg.FlightID)
			return
		}
		t.roots[msg.FlightID] = id
	case ThreadClose:
		delete(t.roots, msg.FlightID)
	}
}

// Open reports how many flights have a thread open.
func (t *Threads) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.roots)
}
