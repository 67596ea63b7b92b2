// Package gateway is the best-effort bridge to the airline's dispatch proxy.
// Nothing here is required for local state to advance: mirror and roster
// calls convert every failure into a Result and log it instead of returning
// an error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zulandar/flightbag/internal/flight"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every proxy request when no client is injected.
const DefaultTimeout = 10 * time.Second

// maxRosterBytes caps the roster body read from the proxy.
const maxRosterBytes = 4 << 20

// DefaultSession is stored when the proxy's token exchange returns no session.
const DefaultSession = "vamsys-session"

// Header names understood by the proxy.
const (
	HeaderUser    = "X-VA-User"
	HeaderSession = "X-EFB-Session"
)

// Reason classifies a failed call.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNotConfigured Reason = "not_configured"
	ReasonTransport     Reason = "transport"
	ReasonStatus        Reason = "status"
	ReasonPayload       Reason = "payload"
)

// Result is the outcome of a best-effort call.
type Result struct {
	OK     bool
	Status int
	Reason Reason
	Err    error
}

func (r Result) String() string {
	switch {
	case r.OK:
		return fmt.Sprintf("ok (HTTP %d)", r.Status)
	case r.Reason == ReasonNotConfigured:
		return "proxy not configured"
	case r.Reason == ReasonStatus:
		return fmt.Sprintf("HTTP %d", r.Status)
	case r.Err != nil:
		return fmt.Sprintf("%s: %v", r.Reason, r.Err)
	default:
		return string(r.Reason)
	}
}

// Credentials supplies the pilot identity and proxy override per request.
// session.Session satisfies it.
type Credentials interface {
	User() string
	Token() string
	APIBaseOverride() string
}

// Identity is what the proxy returns after a successful token exchange.
type Identity struct {
	User    string `json:"user"`
	Session string `json:"session"`
}

// ProbeResult is the raw answer of a connectivity probe.
type ProbeResult struct {
	Status int
	Body   string
}

// Gateway talks to the dispatch proxy.
type Gateway struct {
	creds       Credentials
	defaultBase string
	client      *http.Client
}

// Opts holds parameters for creating a Gateway.
type Opts struct {
	Credentials Credentials
	// DefaultBase is used when the pilot has no override. Empty means the
	// proxy is off unless an override is set.
	DefaultBase string
	// Client defaults to an http.Client with DefaultTimeout.
	Client *http.Client
}

// New creates a Gateway.
func New(opts Opts) (*Gateway, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("gateway: credentials are required")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Gateway{
		creds:       opts.Credentials,
		defaultBase: strings.TrimRight(opts.DefaultBase, "/"),
		client:      client,
	}, nil
}

// BaseURL is the proxy base currently in effect, "" when off.
func (g *Gateway) BaseURL() string {
	if o := g.creds.APIBaseOverride(); o != "" {
		return o
	}
	return g.defaultBase
}

// Configured reports whether a proxy base is in effect.
func (g *Gateway) Configured() bool {
	return g.BaseURL() != ""
}

// MirrorEvent posts ev to the proxy. It is called once per event and never
// retried.
func (g *Gateway) MirrorEvent(ctx context.Context, flightID string, ev flight.Event) Result {
	base := g.BaseURL()
	if base == "" {
		return Result{Reason: ReasonNotConfigured}
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return g.logged("mirror event", Result{Reason: ReasonPayload, Err: err})
	}
	endpoint := fmt.Sprintf("%s/api/flights/%s/events", base, url.PathEscape(flightID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return g.logged("mirror event", Result{Reason: ReasonTransport, Err: err})
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return g.logged("mirror event", Result{Reason: ReasonTransport, Err: err})
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if !success(resp.StatusCode) {
		return g.logged("mirror event", Result{Status: resp.StatusCode, Reason: ReasonStatus})
	}
	return Result{OK: true, Status: resp.StatusCode}
}

// FetchRoster retrieves the pilot's flights. On any failure it returns the
// sample roster together with the failure Result.
func (g *Gateway) FetchRoster(ctx context.Context) ([]flight.Flight, Result) {
	base := g.BaseURL()
	if base == "" {
		return flight.SampleRoster(), Result{Reason: ReasonNotConfigured}
	}

	fallback := func(r Result) ([]flight.Flight, Result) {
		return flight.SampleRoster(), g.logged("fetch roster (using sample roster)", r)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/flights", nil)
	if err != nil {
		return fallback(Result{Reason: ReasonTransport, Err: err})
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fallback(Result{Reason: ReasonTransport, Err: err})
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return fallback(Result{Status: resp.StatusCode, Reason: ReasonStatus})
	}

	flights, err := decodeRoster(resp.Body)
	if err != nil {
		return fallback(Result{Status: resp.StatusCode, Reason: ReasonPayload, Err: err})
	}
	return flights, Result{OK: true, Status: resp.StatusCode}
}

// decodeRoster accepts only a JSON array of flights. The whole body must
// be that array; trailing bytes are a bad payload.
func decodeRoster(r io.Reader) ([]flight.Flight, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxRosterBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxRosterBytes {
		return nil, fmt.Errorf("bad flights payload: larger than %d bytes", maxRosterBytes)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("bad flights payload: not an array")
	}
	var flights []flight.Flight
	if err := json.Unmarshal(trimmed, &flights); err != nil {
		return nil, fmt.Errorf("bad flights payload: %w", err)
	}
	if flights == nil {
		flights = []flight.Flight{}
	}
	return flights, nil
}

// ExchangeCode trades an authorization code for a proxy session. The proxy
// holds the client secret; this side only forwards the code and verifier.
// Unlike the mirror and roster calls, failures are returned.
func (g *Gateway) ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (Identity, error) {
	base := g.BaseURL()
	if base == "" {
		return Identity{}, fmt.Errorf("gateway: token exchange: proxy not configured")
	}
	body, err := json.Marshal(map[string]string{
		"code":          code,
		"code_verifier": verifier,
		"redirect_uri":  redirectURI,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("gateway: token exchange: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/oauth/callback", bytes.NewReader(body))
	if err != nil {
		return Identity{}, fmt.Errorf("gateway: token exchange: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("gateway: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("gateway: token exchange failed: HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return Identity{}, fmt.Errorf("gateway: token exchange: decode response: %w", err)
	}
	if id.Session == "" {
		id.Session = DefaultSession
	}
	return id, nil
}

// Probe issues a bare roster request against base and returns the status
// and the start of the body, for checking a proxy URL before saving it.
func (g *Gateway) Probe(ctx context.Context, base string) (ProbeResult, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ProbeResult{}, fmt.Errorf("gateway: probe: base url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/flights", nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("gateway: probe: %w", err)
	}
	req.Header.Set(HeaderUser, g.creds.User())

	resp, err := g.client.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("gateway: probe: %w", err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 600))
	return ProbeResult{Status: resp.StatusCode, Body: string(text)}, nil
}

// authorize sets the JSON and identity headers. A bearer Authorization
// header carries the session when one exists.
func (g *Gateway) authorize(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderUser, g.creds.User())
	token := g.creds.Token()
	req.Header.Set(HeaderSession, token)
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
}

func (g *Gateway) logged(op string, r Result) Result {
	log.Printf("gateway: %s failed: %s", op, r)
	return r
}

func success(status int) bool {
	return status >= 200 && status < 300
}
