package telegraph

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/zulandar/flightbag/internal/efb"
	"github.com/zulandar/flightbag/internal/flight"
)

// DefaultQueueSize bounds the changes waiting to be announced.
const DefaultQueueSize = 64

// FlightSource resolves a flight with its current log. efb.Service
// satisfies it.
type FlightSource interface {
	Flight(flightID string) (efb.FlightView, error)
}

// Announcer is an efb.Listener that posts phase events and feed notices to
// a chat channel. Refresh only enqueues; Run does the sending, so a slow or
// failing platform never blocks recording.
type Announcer struct {
	adapter   Adapter
	source    FlightSource
	channelID string
	queue     chan efb.Change
	out       io.Writer
}

// AnnouncerOpts holds parameters for creating an Announcer.
type AnnouncerOpts struct {
	Adapter   Adapter
	Source    FlightSource
	ChannelID string
	QueueSize int       // defaults to DefaultQueueSize
	Out       io.Writer // defaults to os.Stdout
}

// NewAnnouncer creates an Announcer with the given options.
func NewAnnouncer(opts AnnouncerOpts) (*Announcer, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("telegraph: flight source is required")
	}
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Announcer{
		adapter:   opts.Adapter,
		source:    opts.Source,
		channelID: opts.ChannelID,
		queue:     make(chan efb.Change, size),
		out:       out,
	}, nil
}

// Refresh enqueues changes worth announcing. When the queue is full the
// change is dropped.
func (a *Announcer) Refresh(c efb.Change) {
	switch c.Kind {
	case efb.ChangeEvent:
		if c.Event == nil {
			return
		}
	case efb.ChangeSimStarted, efb.ChangeSimStopped, efb.ChangeSimFinished:
	default:
		return
	}
	select {
	case a.queue <- c:
	default:
		log.Printf("telegraph: queue full, dropping %s for %s", c.Kind, c.FlightID)
	}
}

// Run connects the adapter and sends queued announcements until ctx is
// cancelled. On shutdown it closes the adapter.
func (a *Announcer) Run(ctx context.Context) error {
	fmt.Fprintf(a.out, "Telegraph connecting...\n")
	if err := a.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("telegraph: connect: %w", err)
	}
	fmt.Fprintf(a.out, "Telegraph online\n")

	for {
		select {
		case <-ctx.Done():
			if err := a.adapter.Close(); err != nil {
				log.Printf("telegraph: close adapter: %v", err)
			}
			fmt.Fprintf(a.out, "Telegraph stopped\n")
			return nil
		case c := <-a.queue:
			a.announce(ctx, c)
		}
	}
}

// announce formats and sends one change. Failures are logged and dropped.
// A feed's messages are threaded under its start notice.
func (a *Announcer) announce(ctx context.Context, c efb.Change) {
	formatted, ok := a.format(c)
	if !ok {
		return
	}
	if err := a.adapter.Send(ctx, OutboundMessage{
		ChannelID: a.channelID,
		FlightID:  c.FlightID,
		Thread:    threadAction(c.Kind),
		Event:     formatted,
	}); err != nil {
		log.Printf("telegraph: send %s for %s: %v", c.Kind, c.FlightID, err)
	}
}

func threadAction(k efb.ChangeKind) ThreadAction {
	switch k {
	case efb.ChangeSimStarted:
		return ThreadOpen
	case efb.ChangeSimStopped, efb.ChangeSimFinished:
		return ThreadClose
	default:
		return ThreadReply
	}
}

func (a *Announcer) format(c efb.Change) (FormattedEvent, bool) {
	view, err := a.source.Flight(c.FlightID)
	if err != nil {
		view = efb.FlightView{Flight: flight.Flight{ID: c.FlightID}}
		if c.Event != nil {
			view.Phase = flight.DerivePhase([]flight.Event{*c.Event})
		}
	}

	switch c.Kind {
	case efb.ChangeEvent:
		return FormatPhaseEvent(view.Flight, *c.Event, view.Phase), true
	case efb.ChangeSimStarted:
		return FormatFeedNotice(view.Flight, "started", c.At), true
	case efb.ChangeSimStopped:
		return FormatFeedNotice(view.Flight, "stopped", c.At), true
	case efb.ChangeSimFinished:
		return FormatFeedNotice(view.Flight, "finished", c.At), true
	}
	return FormattedEvent{}, false
}
