package shome

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// defaultSettleDelay is the pause between the version check and the login
// request. The cloud intermittently rejects logins that arrive before the
// freshly issued session cookie has propagated, so the delay stays.
const defaultSettleDelay = 500 * time.Millisecond

const defaultTimeout = 10 * time.Second

// Client talks to the sHome cloud for one account. It owns the session
// lifecycle: Login establishes the cookie pair and access token, and Do
// transparently re-logs-in once when the server reports the session
// expired. Safe for concurrent use.
type Client struct {
	baseURL     string
	cred        Credential
	httpClient  *http.Client
	logger      Logger
	settleDelay time.Duration
	now         func() time.Time

	// relogin collapses concurrent re-login attempts into one.
	relogin singleflight.Group

	mu      sync.RWMutex
	session LoginSession
	cookie  Cookie
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithSettleDelay overrides the pause between version check and login.
func WithSettleDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.settleDelay = d }
}

// NewClient creates a client for the given account. No network traffic
// happens until Login is called.
func NewClient(baseURL string, cred Credential, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		cred:        cred,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      noopLogger{},
		settleDelay: defaultSettleDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current login session. The zero value
// means no login has succeeded yet.
func (c *Client) Session() LoginSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Login establishes a fresh session: version check to obtain the cookie
// pair, a short settle pause, then the signed credential exchange. Any
// previously held session is replaced wholesale.
func (c *Client) Login(ctx context.Context) error {
	cookie, err := c.checkAppVersion(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionSetup, err)
	}

	select {
	case <-time.After(c.settleDelay):
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrSessionSetup, ctx.Err())
	}

	var session LoginSession
	ep := Login(c.cred, c.now())
	if err := c.execute(ctx, ep, "", cookie, &session); err != nil {
		return fmt.Errorf("%w: login rejected: %v", ErrSessionSetup, err)
	}

	c.mu.Lock()
	c.session = session
	c.cookie = cookie
	c.mu.Unlock()

	c.logger.Info("logged in to shome cloud",
		"username", c.cred.Username,
		"home_id", session.HomeID,
		"wallpad_id", session.WallpadID)
	return nil
}

// checkAppVersion opens a server session and captures the cookie pair
// from the response. The login that follows is only valid against these
// exact cookies.
func (c *Client) checkAppVersion(ctx context.Context) (Cookie, error) {
	ep := CheckAppVersion(c.now())
	req, err := c.newRequest(ctx, ep, "", Cookie{})
	if err != nil {
		return Cookie{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Cookie{}, fmt.Errorf("version check request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Cookie{}, HTTPStatusError{Status: resp.StatusCode}
	}

	var cookie Cookie
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case "JSESSIONID":
			cookie.JSessionID = ck.Value
		case "WMONID":
			cookie.WMonID = ck.Value
		}
	}
	if cookie.JSessionID == "" {
		return Cookie{}, ErrMissingCookie
	}
	return cookie, nil
}

// Do performs a signed API call and decodes the JSON response into out
// (out may be nil for writes whose body is irrelevant). If the server
// reports 401 the client re-logs-in exactly once and retries; a second
// 401 surfaces as ErrAuthExpired.
func (c *Client) Do(ctx context.Context, ep Endpoint, out any) error {
	return c.doWithAuth(ctx, ep, out, true)
}

func (c *Client) doWithAuth(ctx context.Context, ep Endpoint, out any, retryOnAuthError bool) error {
	c.mu.RLock()
	token := c.session.AccessToken
	cookie := c.cookie
	c.mu.RUnlock()

	if token == "" {
		return ErrNotLoggedIn
	}

	err := c.execute(ctx, ep, token, cookie, out)
	if err == nil {
		return nil
	}
	if !IsAuthError(err) {
		return err
	}
	if !retryOnAuthError {
		return fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}

	c.logger.Warn("session expired, re-logging in", "path", ep.Path())
	if _, loginErr, _ := c.relogin.Do("login", func() (any, error) {
		return nil, c.Login(ctx)
	}); loginErr != nil {
		return fmt.Errorf("%w: %v", ErrAuthExpired, loginErr)
	}
	return c.doWithAuth(ctx, ep, out, false)
}

// execute runs one HTTP round trip with explicit credentials and decodes
// the response body.
func (c *Client) execute(ctx context.Context, ep Endpoint, token string, cookie Cookie, out any) error {
	req, err := c.newRequest(ctx, ep, token, cookie)
	if err != nil {
		return err
	}

	c.logger.Debug("shome api request", "method", ep.Method(), "path", ep.Path())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HTTPStatusError{Status: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", ep.Path(), err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, ep Endpoint, token string, cookie Cookie) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + ep.Path())
	if err != nil {
		return nil, fmt.Errorf("building request URL: %w", err)
	}
	u.RawQuery = ep.Params().Encode()

	req, err := http.NewRequestWithContext(ctx, ep.Method(), u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	applyHeaders(req, token, cookie)
	return req, nil
}
