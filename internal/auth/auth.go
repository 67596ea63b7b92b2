// Package auth signs the pilot in, either through the airline's OAuth
// authorization-code flow with PKCE or through a local mock login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/thanhpk/randstr"
	"github.com/zulandar/flightbag/internal/gateway"
	"github.com/zulandar/flightbag/internal/session"
	"golang.org/x/oauth2"
)

// MockSession is the token stored by MockLogin.
const MockSession = "mock-session"

var (
	ErrNoClientID          = errors.New("auth: oauth client id is not configured")
	ErrMissingCode         = errors.New("auth: oauth callback is missing the code")
	ErrMissingVerifier     = errors.New("auth: missing PKCE verifier, start the login again")
	ErrCredentialsRequired = errors.New("auth: user and password are required")
)

// Exchanger trades an authorization code for a proxy session.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code, verifier, redirectURI string) (gateway.Identity, error)
}

// Client drives login and logout against the session store.
type Client struct {
	session   *session.Session
	exchanger Exchanger
	oauth     *oauth2.Config
}

// Opts holds parameters for creating a Client.
type Opts struct {
	Session      *session.Session
	Exchanger    Exchanger
	ClientID     string
	AuthorizeURL string
	RedirectURL  string
}

// New creates a Client. ClientID may be empty, in which case only the mock
// login is available.
func New(opts Opts) (*Client, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("auth: session is required")
	}
	if opts.Exchanger == nil {
		return nil, fmt.Errorf("auth: exchanger is required")
	}
	return &Client{
		session:   opts.Session,
		exchanger: opts.Exchanger,
		oauth: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURL,
			Endpoint:    oauth2.Endpoint{AuthURL: opts.AuthorizeURL},
		},
	}, nil
}

// Login is a started authorization-code flow.
type Login struct {
	URL   string
	State string
}

// BeginLogin creates and stores a PKCE verifier and returns the authorize
// URL the pilot must open.
func (c *Client) BeginLogin() (Login, error) {
	if strings.TrimSpace(c.oauth.ClientID) == "" {
		return Login{}, ErrNoClientID
	}
	verifier := oauth2.GenerateVerifier()
	if err := c.session.SetPKCEVerifier(verifier); err != nil {
		return Login{}, fmt.Errorf("auth: begin login: %w", err)
	}
	state := randstr.String(16)
	return Login{
		URL:   c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		State: state,
	}, nil
}

// ParseCallback extracts the query parameters of a redirect. The redirect
// URL carries them after the fragment route ("#/oauth?code=..."), so the
// first "?" after the fragment marker wins over the URL's own query.
func ParseCallback(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	qs := raw
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, "?"); i >= 0 {
		qs = raw[i+1:]
	}
	values, err := url.ParseQuery(qs)
	if err != nil {
		return nil, fmt.Errorf("auth: parse callback: %w", err)
	}
	return values, nil
}

// CompleteLogin finishes the flow with the redirect's query parameters. On
// success the user and session are stored and the verifier discarded. A
// failed exchange leaves the pilot signed out.
func (c *Client) CompleteLogin(ctx context.Context, params url.Values) (gateway.Identity, error) {
	if e := params.Get("error"); e != "" {
		if desc := params.Get("error_description"); desc != "" {
			e += ": " + desc
		}
		return gateway.Identity{}, fmt.Errorf("auth: oauth error: %s", e)
	}
	code := params.Get("code")
	if code == "" {
		return gateway.Identity{}, ErrMissingCode
	}
	verifier := c.session.PKCEVerifier()
	if verifier == "" {
		return gateway.Identity{}, ErrMissingVerifier
	}

	id, err := c.exchanger.ExchangeCode(ctx, code, verifier, c.oauth.RedirectURL)
	if err != nil {
		if cerr := c.session.ClearToken(); cerr != nil {
			return gateway.Identity{}, errors.Join(fmt.Errorf("auth: complete login: %w", err), cerr)
		}
		return gateway.Identity{}, fmt.Errorf("auth: complete login: %w", err)
	}

	if id.User != "" {
		if err := c.session.SetUser(id.User); err != nil {
			return gateway.Identity{}, fmt.Errorf("auth: complete login: %w", err)
		}
	}
	if err := c.session.SetToken(id.Session); err != nil {
		return gateway.Identity{}, fmt.Errorf("auth: complete login: %w", err)
	}
	if err := c.session.ClearPKCEVerifier(); err != nil {
		return gateway.Identity{}, fmt.Errorf("auth: complete login: %w", err)
	}
	return id, nil
}

// MockLogin signs in without contacting the airline. The password is only
// checked for presence.
func (c *Client) MockLogin(user, password string) error {
	user = strings.TrimSpace(user)
	if user == "" || strings.TrimSpace(password) == "" {
		return ErrCredentialsRequired
	}
	if err := c.session.SetUser(user); err != nil {
		return fmt.Errorf("auth: mock login: %w", err)
	}
	if err := c.session.SetToken(MockSession); err != nil {
		return fmt.Errorf("auth: mock login: %w", err)
	}
	return nil
}

// Logout clears the session token. The user name is kept for the next login.
func (c *Client) Logout() error {
	if err := c.session.ClearToken(); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return nil
}

// LoggedIn reports whether a session token is present.
func (c *Client) LoggedIn() bool {
	return c.session.Token() != ""
}
