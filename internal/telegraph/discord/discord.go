// Package discord posts telegraph announcements to a Discord channel through
// the REST API. Each ACARS feed's messages reply to its start notice.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/flightbag/internal/telegraph"
)

// session is the part of *discordgo.Session the adapter calls.
type session interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// Adapter implements telegraph.Adapter for Discord.
type Adapter struct {
	sess      session
	botToken  string
	channelID string
	threads   *telegraph.Threads
	backoff   telegraph.Backoff

	mu        sync.Mutex
	connected bool
	closed    bool
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string
	ChannelID string // default channel
	// Session replaces the REST session in tests.
	Session session
	// Backoff defaults to telegraph.DefaultBackoff.
	Backoff *telegraph.Backoff
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	a := &Adapter{
		sess:      opts.Session,
		botToken:  opts.BotToken,
		channelID: opts.ChannelID,
		threads:   telegraph.NewThreads(),
		backoff:   telegraph.DefaultBackoff,
	}
	if opts.Backoff != nil {
		a.backoff = *opts.Backoff
	}
	return a, nil
}

// Connect creates the session and verifies the token by resolving the bot user.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}
	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		a.sess = dg
	}

	me, err := a.sess.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: resolve bot user: %w", err)
	}
	log.Printf("discord: connected as %s", me.Username)
	a.connected = true
	return nil
}

// Send posts msg as an embed, replying to the flight's feed start notice
// when one is open.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	a.mu.Lock()
	sess, connected := a.sess, a.connected
	a.mu.Unlock()
	if !connected {
		return fmt.Errorf("discord: not connected")
	}

	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("discord: no channel specified")
	}

	data := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed(msg.Event)}}
	if parent := a.threads.Parent(msg); parent != "" {
		data.Reference = &discordgo.MessageReference{MessageID: parent, ChannelID: channelID}
	}

	var sent *discordgo.Message
	err := a.backoff.Do(ctx, "discord", rateLimit, func() error {
		var sendErr error
		sent, sendErr = sess.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: send %s for %s: %w", msg.Event.Title, msg.FlightID, err)
	}
	var id string
	if sent != nil {
		id = sent.ID
	}
	a.threads.Posted(msg, id)
	return nil
}

// Close shuts down the session. Calling it again is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

func embed(evt telegraph.FormattedEvent) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       color(evt.Color),
	}
	if evt.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: evt.Footer}
	}
	if !evt.At.IsZero() {
		e.Timestamp = evt.At.UTC().Format(time.RFC3339)
	}
	for _, f := range evt.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Short})
	}
	return e
}

// color parses "#rrggbb"; anything else is 0, Discord's default.
func color(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// rateLimit recognises a 429 and its Retry-After seconds.
func rateLimit(err error) (time.Duration, bool) {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil || restErr.Response.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	secs, perr := strconv.ParseFloat(restErr.Response.Header.Get("Retry-After"), 64)
	if perr != nil || secs <= 0 {
		return 0, true
	}
	return time.Duration(secs * float64(time.Second)), true
}
