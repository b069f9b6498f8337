// Package tor provides optional proxied egress for the hunt.
//
// By default the transport dials the target directly. This package
// supplies the two alternatives: routing through an existing SOCKS5
// proxy (--proxy), and starting an embedded Tor daemon via tornago
// (--tor) whose SOCKS port then carries the traffic.
//
// Client satisfies the transport's Dialer interface, so proxying is
// invisible above the TCP layer: TLS and the hand-rolled HTTP exchange
// happen on top of whichever dialer is injected.
//
// The package is designed for dependency injection - create a Client
// and pass it to the transport rather than using global state.
package tor
