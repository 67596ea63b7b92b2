// Package slack posts telegraph announcements to a Slack channel through the
// Web API. Each ACARS feed gets a thread rooted at its start notice.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/flightbag/internal/telegraph"
)

// slackClient is the part of *slackapi.Client the adapter calls.
type slackClient interface {
	AuthTestContext(ctx context.Context) (*slackapi.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements telegraph.Adapter for Slack.
type Adapter struct {
	client    slackClient
	botToken  string
	channelID string
	threads   *telegraph.Threads
	backoff   telegraph.Backoff

	mu        sync.Mutex
	connected bool
	closed    bool
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... bot token
	ChannelID string // default channel
	// Client replaces the Web API client in tests.
	Client slackClient
	// Backoff defaults to telegraph.DefaultBackoff.
	Backoff *telegraph.Backoff
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	a := &Adapter{
		client:    opts.Client,
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

// Connect verifies the bot token.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("slack: adapter already closed")
	}
	if a.connected {
		return nil
	}
	if a.client == nil {
		a.client = slackapi.New(a.botToken)
	}

	auth, err := a.client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	log.Printf("slack: connected as %s in %s", auth.User, auth.Team)
	a.connected = true
	return nil
}

// Send posts msg as an attachment. Replies go under the flight's feed
// thread; the closing reply is also broadcast to the channel.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	a.mu.Lock()
	client, connected := a.client, a.connected
	a.mu.Unlock()
	if !connected {
		return fmt.Errorf("slack: not connected")
	}

	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("slack: no channel specified")
	}

	options := messageOptions(msg, a.threads.Parent(msg))
	var ts string
	err := a.backoff.Do(ctx, "slack", rateLimit, func() error {
		var postErr error
		_, ts, postErr = client.PostMessageContext(ctx, channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post %s for %s: %w", msg.Event.Title, msg.FlightID, err)
	}
	a.threads.Posted(msg, ts)
	return nil
}

// Close marks the adapter closed. The Web API holds no connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.connected = false
	return nil
}

func messageOptions(msg telegraph.OutboundMessage, parent string) []slackapi.MsgOption {
	options := []slackapi.MsgOption{
		slackapi.MsgOptionText(msg.Event.Title, false),
		slackapi.MsgOptionAttachments(attachment(msg.Event)),
	}
	if parent != "" {
		options = append(options, slackapi.MsgOptionTS(parent))
		if msg.Thread == telegraph.ThreadClose {
			options = append(options, slackapi.MsgOptionBroadcast())
		}
	}
	return options
}

func attachment(evt telegraph.FormattedEvent) slackapi.Attachment {
	att := slackapi.Attachment{
		Fallback: evt.Title,
		Color:    evt.Color,
		Title:    evt.Title,
		Text:     evt.Body,
		Footer:   evt.Footer,
	}
	if !evt.At.IsZero() {
		att.Ts = json.Number(strconv.FormatInt(evt.At.Unix(), 10))
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{Title: f.Name, Value: f.Value, Short: f.Short})
	}
	return att
}

// rateLimit recognises Slack's 429 and its Retry-After.
func rateLimit(err error) (time.Duration, bool) {
	var rle *slackapi.RateLimitedError
	if !errors.As(err, &rle) {
		return 0, false
	}
	return rle.RetryAfter, true
}
