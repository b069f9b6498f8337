package protocol

import (
	"fmt"
	"strings"
)

// Request is one HTTP/1.1 request in the exact form it goes on the wire.
// Every request carries Connection: close, so the server ends each
// exchange by closing the socket and response framing never depends on
// Content-Length bookkeeping.
type Request struct {
	// Method is the HTTP method, "GET" or "POST".
	Method string

	// Path is the absolute path on the server, query included.
	Path string

	// Host is the value of the Host header.
	Host string

	// Cookie is the pre-joined Cookie header value. Empty means the
	// header is omitted entirely, which is how the first request of a
	// session goes out.
	Cookie string

	// ContentType is sent for requests with a body.
	ContentType string

	// Body is the raw request body, already encoded.
	Body string
}

// NewGet builds a GET request for path.
func NewGet(host, path string) *Request {
	return &Request{
		Method: "GET",
		Path:   path,
		Host:   host,
	}
}

// NewPostForm builds a POST request carrying an already URL-encoded
// form body.
func NewPostForm(host, path, body string) *Request {
	return &Request{
		Method:      "POST",
		Path:        path,
		Host:        host,
		ContentType: "application/x-www-form-urlencoded",
		Body:        body,
	}
}

// Encode renders the request as literal HTTP/1.1 wire text.
//
// The header layout is fixed: request line, Host, Connection, then
// Content-Type and Content-Length when a body is present, then Cookie.
// The server does not care about the order, but a stable layout keeps
// the wire traffic byte-for-byte reproducible between runs.
func (r *Request) Encode() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", r.Method, r.Path)
	fmt.Fprintf(&b, "Host: %s\r\n", r.Host)
	b.WriteString("Connection: close\r\n")

	if r.Body != "" || r.Method == "POST" {
		if r.ContentType != "" {
			fmt.Fprintf(&b, "Content-Type: %s\r\n", r.ContentType)
		}
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	}

	if r.Cookie != "" {
		fmt.Fprintf(&b, "Cookie: %s\r\n", r.Cookie)
	}

	b.WriteString("\r\n")
	b.WriteString(r.Body)

	return b.String()
}
