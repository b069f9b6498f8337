// Package protocol implements the hand-rolled HTTP/1.1-over-TLS layer
// the crawler speaks to the target server.
//
// Nothing here uses the net/http client stack. Requests are composed as
// literal wire text, written to a fresh TLS connection per exchange, and
// responses are read raw off the socket, chunk-decoded, and parsed by
// this package. On top of the transport sits a small policy client that
// gives every status code the server emits exactly one meaning:
//
//   - 2xx  the page; returned to the caller
//   - 302  follow Location with a fresh GET, carrying merged cookies
//   - 403  abandon the page (ErrAbandoned)
//   - 404  abandon the page (ErrAbandoned)
//   - 503  re-issue the identical request; the server throttles and
//     expects the client to try again
//
// Any other status is an error that fails the hunt. The package also
// owns the cookie jar, since cookie state is a property of the wire
// conversation rather than of any one fetch.
package protocol
