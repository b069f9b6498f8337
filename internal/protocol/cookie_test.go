package protocol

import (
	"fmt"
	"sync"
	"testing"
)

// respWithCookies builds a response carrying the given Set-Cookie lines.
func respWithCookies(lines ...string) *Response {
	resp := &Response{StatusCode: 200}
	for _, l := range lines {
		resp.Headers = append(resp.Headers, Header{Name: "Set-Cookie", Value: l})
	}
	return resp
}

// TestJarMerge covers the replace-by-name contract.
func TestJarMerge(t *testing.T) {
	t.Parallel()

	t.Run("new cookies append in order", func(t *testing.T) {
		t.Parallel()

		jar := NewJar()
		jar.Merge(respWithCookies("csrftoken=abc; Path=/", "sessionid=def; HttpOnly"))

		if got := jar.HeaderValue(); got != "csrftoken=abc; sessionid=def" {
			t.Errorf("unexpected header value %q", got)
		}
	})

	t.Run("same name replaces in place", func(t *testing.T) {
		t.Parallel()

		jar := NewJar()
		jar.Merge(respWithCookies("csrftoken=old"))
		jar.Merge(respWithCookies("sessionid=s1"))
		jar.Merge(respWithCookies("csrftoken=new; Secure"))

		if got := jar.HeaderValue(); got != "csrftoken=new; sessionid=s1" {
			t.Errorf("expected replacement to keep order, got %q", got)
		}
		if jar.Len() != 2 {
			t.Errorf("expected 2 cookies, got %d", jar.Len())
		}
	})

	t.Run("merging the same response twice is a no-op", func(t *testing.T) {
		t.Parallel()

		jar := NewJar()
		resp := respWithCookies("csrftoken=abc", "sessionid=def")
		jar.Merge(resp)
		first := jar.HeaderValue()
		jar.Merge(resp)

		if got := jar.HeaderValue(); got != first {
			t.Errorf("second merge changed jar: %q -> %q", first, got)
		}
	})

	t.Run("attributes after semicolon are dropped", func(t *testing.T) {
		t.Parallel()

		jar := NewJar()
		jar.Merge(respWithCookies("sessionid=def; Path=/; HttpOnly; SameSite=Lax"))

		if got := jar.HeaderValue(); got != "sessionid=def" {
			t.Errorf("attributes leaked into jar: %q", got)
		}
	})

	t.Run("valueless token is ignored", func(t *testing.T) {
		t.Parallel()

		jar := NewJar()
		jar.Merge(respWithCookies("nonsense", "=orphan", "good=1"))

		if got := jar.HeaderValue(); got != "good=1" {
			t.Errorf("expected only the well-formed cookie, got %q", got)
		}
	})

	t.Run("empty jar renders empty header value", func(t *testing.T) {
		t.Parallel()

		if got := NewJar().HeaderValue(); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("non-cookie headers are not merged", func(t *testing.T) {
		t.Parallel()

		jar := NewJar()
		jar.Merge(&Response{Headers: []Header{
			{Name: "Location", Value: "/fakebook/"},
			{Name: "Server", Value: "nginx=1.2"},
		}})

		if jar.Len() != 0 {
			t.Errorf("expected empty jar, got %q", jar.HeaderValue())
		}
	})
}

// TestJarConcurrentMerge checks the jar under parallel merges. Run with
// -race; correctness here is just "no data race and every name lands".
func TestJarConcurrentMerge(t *testing.T) {
	t.Parallel()

	jar := NewJar()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				jar.Merge(respWithCookies(fmt.Sprintf("c%d=v%d", n, j)))
				_ = jar.HeaderValue()
			}
		}(i)
	}
	wg.Wait()

	if jar.Len() != 16 {
		t.Errorf("expected 16 distinct cookies, got %d", jar.Len())
	}
}
