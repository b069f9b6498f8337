package tor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout is the timeout for checking if the proxy is available.
// We use a short timeout here because this is just a connectivity check,
// not an actual request through the proxy.
const checkProxyTimeout = 2 * time.Second

// Client routes TCP connections through a SOCKS5 proxy.
// It satisfies the transport's Dialer interface, so injecting it is the
// only change a proxied hunt needs: TLS and the HTTP exchange run on
// top of it unchanged.
type Client struct {
	// proxyAddress is the SOCKS5 proxy address in "host:port" format.
	proxyAddress string

	// dialer is the SOCKS5 dialer.
	// We cache this to avoid recreating it for each connection.
	dialer proxy.Dialer

	// timeout is the default timeout for connections.
	timeout time.Duration
}

// NewClient creates a new proxy client with the given address and timeout.
//
// The proxyAddress must be in "host:port" format (e.g., "127.0.0.1:9050").
//
// This function validates the proxy address format but does not verify
// that the proxy is actually running. Call CheckConnection() to verify.
//
// Design decision: We don't connect to the proxy in the constructor because:
// 1. It allows creating the client before the proxy is up
// 2. It separates object creation from network operations
// 3. It allows for better testing with mock proxies
func NewClient(proxyAddress string, timeout time.Duration) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// nil auth: Tor's SOCKS port and most local proxies run unauthenticated
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
// We use a simple check rather than a full URL parser because the format
// is very specific (no scheme, no path, just host and port).
func isValidProxyAddress(address string) bool {
	parts := strings.Split(address, ":")
	if len(parts) != 2 {
		return false
	}

	host := parts[0]
	port := parts[1]

	if host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}

	return portNum >= 1
}

// SOCKS5 protocol constants.
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5AuthNoAccept  = 0xFF
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03

	// socks5ProbeHost is a synthetic hostname used for the handshake probe.
	// It is intentionally unresolvable - we only need to verify the proxy
	// responds to SOCKS5 CONNECT requests, not that the connection succeeds.
	// Using a fake address avoids any interaction with real services.
	socks5ProbeHost = "flaghunt-proxy-probe.invalid"
)

// CheckConnection verifies that the SOCKS5 proxy is running and accessible.
// It returns a ProxyStatus indicating the result of the check.
//
// The check works by performing a SOCKS5 protocol handshake to verify:
// 1. The proxy speaks SOCKS5 protocol
// 2. The proxy accepts connections without authentication
// 3. The proxy processes domain-addressed CONNECT requests
//
// Security note: This is more robust than reading banner strings, as a
// fake proxy cannot easily mimic proper SOCKS5 protocol behavior.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Step 1: SOCKS5 version negotiation.
	// Client sends: version (1 byte) + num auth methods (1 byte) + methods.
	// We offer no authentication (0x00) only.
	_, err = conn.Write([]byte{socks5Version, 0x01, socks5AuthNone})
	if err != nil {
		return ProxyStatusCannotConnect
	}

	// Server responds: version (1 byte) + selected auth method (1 byte).
	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		// Anything else means it didn't speak SOCKS5 properly.
		return ProxyStatusWrongType
	}

	if authResp[0] != socks5Version {
		return ProxyStatusWrongType
	}
	if authResp[1] == socks5AuthNoAccept || authResp[1] != socks5AuthNone {
		// The proxy demands authentication we don't carry.
		return ProxyStatusWrongType
	}

	// Step 2: Verify the proxy can handle connection requests.
	// We send a CONNECT for a synthetic hostname; the proxy should
	// respond even if the connection itself fails. This verifies it's
	// actually proxying, not just accepting SOCKS5 handshakes.
	probeHost := socks5ProbeHost
	probePort := uint16(80)

	connectReq := []byte{
		socks5Version,
		socks5CmdConnect,
		0x00, // reserved
		socks5AddrTypeDomID,
		byte(len(probeHost)),
	}
	connectReq = append(connectReq, []byte(probeHost)...)
	connectReq = append(connectReq, byte(probePort>>8), byte(probePort&0xFF))

	if _, err := conn.Write(connectReq); err != nil {
		return ProxyStatusCannotConnect
	}

	// Read response header: version + reply + reserved + addr type.
	// The connect itself may fail (the probe host does not exist);
	// what matters is that the proxy answered in protocol.
	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}

	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	// Any reply code (success or failure) means the proxy processed
	// the request.
	return ProxyStatusOK
}

// Dial establishes a TCP connection through the proxy to the given address.
func (c *Client) Dial(network, address string) (net.Conn, error) {
	return c.dialer.Dial(network, address)
}

// DialContext establishes a TCP connection through the proxy with
// context support. This is the method the transport injects.
//
// Design decision: We wrap the basic Dial with context support because
// the proxy.Dialer interface doesn't support context directly. If the
// context is cancelled, the goroutine returns the error but the
// underlying connection attempt may continue briefly. This is a known
// limitation of the approach.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Timeout returns the client's default connection timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Dialer returns the underlying proxy dialer.
func (c *Client) Dialer() proxy.Dialer {
	return c.dialer
}
