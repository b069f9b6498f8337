package protocol

import (
	"strings"
	"sync"
)

// Jar is a replace-by-name cookie jar.
//
// The server only ever hands out two cookies (csrftoken and sessionid),
// and re-issues them with fresh values across the login flow. The jar
// therefore keeps raw "name=value" strings in first-seen order and
// replaces in place when a known name arrives again, so a merge of the
// same response twice is a no-op. Attributes after the first ';' in a
// Set-Cookie line (Path, HttpOnly, ...) are dropped; the crawler talks
// to a single origin and never needs them.
type Jar struct {
	mu      sync.Mutex
	cookies []string
}

// NewJar returns an empty cookie jar.
func NewJar() *Jar {
	return &Jar{}
}

// Merge folds every Set-Cookie header of resp into the jar. Safe for
// concurrent use; in practice it is called at the synchronous point
// right after each exchange inside the policy loop.
func (j *Jar) Merge(resp *Response) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, h := range resp.Headers {
		if !strings.EqualFold(h.Name, "Set-Cookie") {
			continue
		}

		pair, _, _ := strings.Cut(h.Value, ";")
		pair = strings.TrimSpace(pair)

		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			// Not a name=value token; nothing usable.
			continue
		}

		j.store(pair, pair[:eq+1])
	}
}

// store replaces the stored cookie sharing prefix ("name=") or appends
// pair when the name is new. Caller holds the lock.
func (j *Jar) store(pair, prefix string) {
	for i, existing := range j.cookies {
		if strings.HasPrefix(existing, prefix) {
			j.cookies[i] = pair
			return
		}
	}
	j.cookies = append(j.cookies, pair)
}

// HeaderValue renders the jar as a Cookie header value, cookies joined
// with "; " in first-seen order. Empty jar yields "", which callers
// treat as "send no Cookie header".
func (j *Jar) HeaderValue() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return strings.Join(j.cookies, "; ")
}

// Len reports how many cookies the jar holds.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

// Cookies returns a copy of the stored cookie strings.
func (j *Jar) Cookies() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.cookies))
	copy(out, j.cookies)
	return out
}
