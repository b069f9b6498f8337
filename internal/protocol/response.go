package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Header is a single name/value line from a response head. Responses
// keep their headers as an ordered slice rather than a map because the
// server sends several Set-Cookie lines under the same name and all of
// them matter.
type Header struct {
	Name  string
	Value string
}

// Response is one parsed HTTP response.
type Response struct {
	// StatusCode is the integer code from the status line.
	StatusCode int

	// Headers holds every header line in arrival order.
	Headers []Header

	// Body is the response body, already chunk-decoded.
	Body string
}

// Header returns the value of the first header with the given name,
// case-insensitively, or "" when absent.
func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// HeaderValues returns every value carried under the given name,
// case-insensitively, in arrival order.
func (r *Response) HeaderValues(name string) []string {
	var values []string
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// ParseResponse parses raw response text (already chunk-decoded, see
// DecodeMessage) into a Response. The head and body are split at the
// first blank line; the status line must carry an integer code.
func ParseResponse(raw string) (*Response, error) {
	head, body, found := strings.Cut(raw, "\r\n\r\n")
	if !found {
		return nil, fmt.Errorf("%w: no header/body separator", ErrMalformedResponse)
	}

	lines := strings.Split(head, "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("%w: empty status line", ErrMalformedResponse)
	}

	// Status line: "HTTP/1.1 302 Found". Only the code is used.
	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: status line %q", ErrMalformedResponse, lines[0])
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: status code %q", ErrMalformedResponse, parts[1])
	}

	resp := &Response{
		StatusCode: code,
		Headers:    make([]Header, 0, len(lines)-1),
		Body:       body,
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			// The server never folds headers; anything without a colon
			// is noise and dropping it is safer than failing the fetch.
			continue
		}
		resp.Headers = append(resp.Headers, Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	return resp, nil
}

// DecodeMessage takes raw response text as read off the socket and,
// when the head declares Transfer-Encoding: chunked, replaces the body
// with its chunk-decoded form. Messages without chunking pass through
// untouched.
func DecodeMessage(raw string) (string, error) {
	head, body, found := strings.Cut(raw, "\r\n\r\n")
	if !found {
		return "", fmt.Errorf("%w: no header/body separator", ErrMalformedResponse)
	}

	if !headDeclaresChunked(head) {
		return raw, nil
	}

	decoded, err := decodeChunkedBody(body)
	if err != nil {
		return "", err
	}
	return head + "\r\n\r\n" + decoded, nil
}

// headDeclaresChunked reports whether the header block declares
// chunked transfer encoding.
func headDeclaresChunked(head string) bool {
	for _, line := range strings.Split(head, "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Transfer-Encoding") &&
			strings.Contains(strings.ToLower(value), "chunked") {
			return true
		}
	}
	return false
}

// decodeChunkedBody reassembles a chunked body: a hex size line, that
// many bytes, a CRLF, repeated until the zero-size chunk. Trailers
// after the zero chunk are discarded.
func decodeChunkedBody(body string) (string, error) {
	var out strings.Builder
	rest := body

	for {
		line, remainder, ok := strings.Cut(rest, "\r\n")
		if !ok {
			return "", fmt.Errorf("%w: missing chunk size line", ErrTruncatedChunk)
		}

		// Chunk extensions (";...") are permitted by the grammar and
		// ignored here.
		sizeTok := strings.TrimSpace(line)
		if i := strings.IndexByte(sizeTok, ';'); i >= 0 {
			sizeTok = strings.TrimSpace(sizeTok[:i])
		}

		size, err := strconv.ParseUint(sizeTok, 16, 32)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrMalformedChunk, line)
		}

		if size == 0 {
			return out.String(), nil
		}

		n := int(size)
		if len(remainder) < n+2 {
			return "", fmt.Errorf("%w: chunk of %d bytes cut short", ErrTruncatedChunk, n)
		}

		out.WriteString(remainder[:n])
		if remainder[n:n+2] != "\r\n" {
			return "", fmt.Errorf("%w: chunk data not followed by CRLF", ErrMalformedChunk)
		}
		rest = remainder[n+2:]
	}
}
