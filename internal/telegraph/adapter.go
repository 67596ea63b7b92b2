// Package telegraph relays flight phase events to a chat channel (Slack or
// Discord) so dispatchers can follow a flight without opening the bag.
package telegraph

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
type Adapter interface {
	// Connect authenticates against the chat platform.
	Connect(ctx context.Context) error

	// Send posts one message, threading it per msg.Thread.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close releases the connection.
	Close() error
}

// ThreadAction says where a message sits in its flight's feed thread.
type ThreadAction int

const (
	// ThreadNone posts at the top level of the channel.
	ThreadNone ThreadAction = iota
	// ThreadOpen posts at the top level and makes the message the root of
	// the flight's thread, replacing any earlier root.
	ThreadOpen
	// ThreadReply posts under the flight's thread, or at the top level when
	// no thread is open.
	ThreadReply
	// ThreadClose replies like ThreadReply and then forgets the thread.
	ThreadClose
)

// OutboundMessage is one announcement for one flight.
type OutboundMessage struct {
	ChannelID string // target channel; adapters fall back to their default
	FlightID  string // thread key
	Thread    ThreadAction
	Event     FormattedEvent
}

// FormattedEvent is a flight event formatted for display in chat.
type FormattedEvent struct {
	Title  string    // event headline (e.g. "VAM123 · TAKEOFF")
	Body   string    // detail text
	Color  string    // sidebar color (e.g. "#36a64f")
	Footer string    // flight id and callsign
	At     time.Time // when it happened; zero omits the timestamp
	Fields []Field
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}
