package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
)

// Client runs complete fetches against one server: it builds requests,
// hands them to the Transport, and applies the response policy until a
// terminal outcome is reached. All crawl workers share one Client, so
// the cookie jar and the counters live here.
type Client struct {
	transport *Transport
	host      string
	port      int
	jar       *Jar
	logger    *slog.Logger

	// maxRetries caps 503 re-issues per fetch; 0 means unbounded.
	// The server throttles freely and expects callers to keep trying,
	// so unbounded is the contract and the cap is an operator opt-in.
	maxRetries int

	// maxRedirects caps 302 hops per fetch; 0 means unbounded.
	maxRedirects int

	// Counters for the run report.
	fetches   atomic.Int64
	retries   atomic.Int64
	redirects atomic.Int64
	abandoned atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMaxRetries caps how often a single fetch is re-issued on 503.
// Zero keeps the default unbounded behavior.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithMaxRedirects caps how many 302 hops a single fetch follows.
// Zero keeps the default unbounded behavior.
func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = n
	}
}

// WithClientLogger sets the logger for fetch tracing.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the given server. The jar starts
// empty; the login flow fills it.
func NewClient(transport *Transport, host string, port int, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		host:      host,
		port:      port,
		jar:       NewJar(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Jar exposes the client's cookie jar.
func (c *Client) Jar() *Jar {
	return c.jar
}

// Host returns the hostname the client talks to.
func (c *Client) Host() string {
	return c.host
}

// Get fetches path and applies the response policy until a terminal
// outcome: a 2xx response, ErrAbandoned, or a fatal error.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, NewGet(c.hostHeader(), path))
}

// PostForm submits an already URL-encoded form body to path under the
// same policy. Redirects after the POST are followed as GETs, which is
// how the login form hands the session over to the landing page.
func (c *Client) PostForm(ctx context.Context, path, body string) (*Response, error) {
	return c.do(ctx, NewPostForm(c.hostHeader(), path, body))
}

// Stats is a point-in-time snapshot of the client's counters.
type Stats struct {
	// Fetches is the number of fetches that reached a 2xx terminal.
	Fetches int64

	// Retries is the number of 503 re-issues.
	Retries int64

	// Redirects is the number of 302 hops followed.
	Redirects int64

	// Abandoned is the number of fetches ending in 403 or 404.
	Abandoned int64
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	return Stats{
		Fetches:   c.fetches.Load(),
		Retries:   c.retries.Load(),
		Redirects: c.redirects.Load(),
		Abandoned: c.abandoned.Load(),
	}
}

// do is the policy loop. The request under consideration is the loop
// accumulator: a 302 swaps in a fresh GET for the Location target, a
// 503 keeps the request as-is, and everything else terminates the loop
// one way or another. Cookies are re-read from the jar on every
// iteration because redirect responses grow the jar mid-fetch.
func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	retries, redirects := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req.Cookie = c.jar.HeaderValue()

		raw, err := c.transport.Exchange(ctx, c.addr(), req.Encode())
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}

		resp, err := ParseResponse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}

		// Every response can carry cookies, not just the terminal one.
		// The login flow in particular hands out csrftoken and
		// sessionid on intermediate redirects.
		c.jar.Merge(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.fetches.Add(1)
			return resp, nil

		case resp.StatusCode == 302:
			redirects++
			c.redirects.Add(1)
			if c.maxRedirects > 0 && redirects > c.maxRedirects {
				return nil, fmt.Errorf("%s: %w", req.Path, ErrTooManyRedirects)
			}

			location := resp.Header("Location")
			if location == "" {
				return nil, fmt.Errorf("%s: %w", req.Path, ErrMissingLocation)
			}

			target, err := c.resolveLocation(location)
			if err != nil {
				return nil, err
			}

			c.logger.Debug("following redirect", "from", req.Path, "to", target)
			req = NewGet(c.hostHeader(), target)

		case resp.StatusCode == 403 || resp.StatusCode == 404:
			c.abandoned.Add(1)
			return nil, fmt.Errorf("%s %s (status %d): %w",
				req.Method, req.Path, resp.StatusCode, ErrAbandoned)

		case resp.StatusCode == 503:
			retries++
			c.retries.Add(1)
			if c.maxRetries > 0 && retries > c.maxRetries {
				return nil, fmt.Errorf("%s: %w", req.Path, ErrTooManyRetries)
			}
			// Re-issue the identical request. No backoff: the server's
			// throttling contract is simply "try again".
			c.logger.Debug("throttled, retrying", "path", req.Path, "attempt", retries)

		default:
			return nil, &StatusError{Code: resp.StatusCode, Path: req.Path}
		}
	}
}

// resolveLocation turns a Location header into a request path.
// Path-only targets pass through; absolute and scheme-relative URLs on
// this host are reduced to their path; anything pointing off-host is
// abandoned, since the hunt never leaves the target server.
func (c *Client) resolveLocation(location string) (string, error) {
	// Scheme-relative targets ("//host/path") carry a host and must go
	// through the containment check below, not the path fast path.
	if strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		return location, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("unparseable Location %q: %w", location, err)
	}

	if u.Host != "" && !strings.EqualFold(u.Hostname(), c.host) {
		c.abandoned.Add(1)
		return "", fmt.Errorf("redirect to foreign host %q: %w", u.Host, ErrAbandoned)
	}

	path := u.RequestURI()
	if path == "" {
		path = "/"
	}
	return path, nil
}

// addr returns the dial target.
func (c *Client) addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// hostHeader returns the Host header value: the bare name on the
// default HTTPS port, host:port on anything else.
func (c *Client) hostHeader() string {
	if c.port == 443 {
		return c.host
	}
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}
