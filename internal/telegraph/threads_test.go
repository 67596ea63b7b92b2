package telegraph

import "testing"

func msgFor(id string, action ThreadAction) OutboundMessage {
	return OutboundMessage{FlightID: id, Thread: action}
}

func TestThreads_FeedLifecycle(t *testing.T) {
	th := NewThreads()

	if p := th.Parent(msgFor("f001", ThreadReply)); p != "" {
		t.Errorf("reply before open: Parent = %q, want top level", p)
	}

	open := msgFor("f001", ThreadOpen)
	if p := th.Parent(open); p != "" {
		t.Errorf("open: Parent = %q, want top level", p)
	}
	th.Posted(open, "root-1")

	if p := th.Parent(msgFor("f001", ThreadReply)); p != "root-1" {
		t.Errorf("reply: Parent = %q, want root-1", p)
	}
	if p := th.Parent(msgFor("f002", ThreadReply)); p != "" {
		t.Errorf("other flight: Parent = %q, want top level", p)
	}

	closing := msgFor("f001", ThreadClose)
	if p := th.Parent(closing); p != "root-1" {
		t.Errorf("close: Parent = %q, want root-1", p)
	}
	th.Posted(closing, "reply-9")
	if th.Open() != 0 {
		t.Errorf("Open() = %d after close, want 0", th.Open())
	}
	if p := th.Parent(msgFor("f001", ThreadReply)); p != "" {
		t.Errorf("reply after close: Parent = %q, want top level", p)
	}
}

func TestThreads_ReopenReplacesRoot(t *testing.T) {
	th := NewThreads()
	th.Posted(msgFor("f001", ThreadOpen), "root-1")
	th.Posted(msgFor("f001", ThreadOpen), "root-2")

	if p := th.Parent(msgFor("f001", ThreadReply)); p != "root-2" {
		t.Errorf("Parent = %q, want root-2", p)
	}
	if th.Open() != 1 {
		t.Errorf("Open() = %d, want 1", th.Open())
	}
}

func TestThreads_IgnoresUnkeyedAndUnthreaded(t *testing.T) {
	th := NewThreads()
	th.Posted(msgFor("", ThreadOpen), "root-1")
	th.Posted(msgFor("f001", ThreadNone), "root-2")
	th.Posted(msgFor("f001", ThreadReply), "reply-1")

	if th.Open() != 0 {
		t.Errorf("Open() = %d, want 0", th.Open())
	}
	if p := th.Parent(msgFor("f001", ThreadNone)); p != "" {
		t.Errorf("ThreadNone: Parent = %q, want top level", p)
	}
}
