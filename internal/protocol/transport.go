package protocol

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Dialer establishes raw TCP connections. *net.Dialer satisfies it for
// direct connections; the tor package's client satisfies it when the
// traffic should leave through a SOCKS5 proxy. TLS always happens above
// the dialer, so proxying is invisible to the rest of this package.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Transport performs single HTTP exchanges over fresh TLS connections.
//
// Design decision: one connection per exchange rather than a pooled or
// keep-alive client, for three reasons:
//  1. Every request carries Connection: close, so the server would tear
//     the connection down anyway; pooling buys nothing.
//  2. Peer close is the response framing. Reusing connections would
//     force Content-Length bookkeeping back into the reader.
//  3. A dead connection can never poison a later exchange.
type Transport struct {
	// dialer supplies the raw TCP connection.
	dialer Dialer

	// tlsConfig is cloned per connection; ServerName is filled from the
	// target host when the config does not set one.
	tlsConfig *tls.Config

	// dialTimeout bounds TCP connect plus TLS handshake plus the
	// request write.
	dialTimeout time.Duration

	// readIdleTimeout is re-armed before every read. A read that sits
	// this long with no data ends the response.
	readIdleTimeout time.Duration

	// logger receives per-exchange debug output.
	logger *slog.Logger
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithDialer sets the dialer used for raw TCP connections.
func WithDialer(d Dialer) TransportOption {
	return func(t *Transport) {
		t.dialer = d
	}
}

// WithTLSConfig replaces the TLS client configuration.
func WithTLSConfig(cfg *tls.Config) TransportOption {
	return func(t *Transport) {
		t.tlsConfig = cfg
	}
}

// WithDialTimeout sets the bound on connection establishment.
func WithDialTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.dialTimeout = d
	}
}

// WithReadIdleTimeout sets the per-read idle deadline.
func WithReadIdleTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.readIdleTimeout = d
	}
}

// WithTransportLogger sets the logger for exchange tracing.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a Transport with working defaults: direct
// dialing, TLS without certificate verification (the course server is
// self-signed), a 10 second dial bound, and a 1 second read idle
// deadline.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		dialer: &net.Dialer{},
		tlsConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // self-signed course server
			MinVersion:         tls.VersionTLS12,
		},
		dialTimeout:     10 * time.Second,
		readIdleTimeout: 1 * time.Second,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Exchange sends requestText to addr ("host:port") over a fresh TLS
// connection and returns the complete response text, chunk-decoded.
//
// Reading stops on peer close (the normal case, since every request
// says Connection: close) or when a read sits readIdleTimeout with
// nothing arriving. An exchange that produces zero bytes returns
// ErrEmptyResponse.
func (t *Transport) Exchange(ctx context.Context, addr, requestText string) (string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, t.dialTimeout)
	defer cancel()

	conn, err := t.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	cfg := t.tlsConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(dialCtx); err != nil {
		return "", fmt.Errorf("tls handshake with %s: %w", addr, err)
	}

	if err := tlsConn.SetWriteDeadline(time.Now().Add(t.dialTimeout)); err != nil {
		return "", fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := io.WriteString(tlsConn, requestText); err != nil {
		return "", fmt.Errorf("write request to %s: %w", addr, err)
	}

	raw, err := t.readAll(ctx, tlsConn)
	if err != nil {
		return "", err
	}

	t.logger.Debug("exchange complete", "addr", addr, "response_bytes", len(raw))

	return DecodeMessage(raw)
}

// readAll drains the connection. The idle deadline is re-armed before
// every read, so a slow trickle of data keeps the read alive while a
// silent socket ends it.
func (t *Transport) readAll(ctx context.Context, conn net.Conn) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 32*1024)

	for {
		// Cancellation is checked between reads; the idle deadline
		// bounds how stale this check can get.
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := conn.SetReadDeadline(time.Now().Add(t.readIdleTimeout)); err != nil {
			return "", fmt.Errorf("set read deadline: %w", err)
		}

		n, err := conn.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Idle socket: the response is as complete as it will get.
				break
			}
			return "", fmt.Errorf("read response: %w", err)
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return sb.String(), nil
}
