package crawler

import (
	"net/url"
	"strings"
)

// Markup anchors the scanner keys on. These are a contract with the
// target site's templates, not general HTML handling: if the site
// changes its markup, extraction silently finds nothing, and that
// fragility is accepted and documented rather than papered over.
const (
	// flagMarker is the CSS class the site puts on flag elements.
	flagMarker = "secret_flag"

	// flagLabel precedes the flag value inside a marked element.
	flagLabel = "FLAG: "

	// listOpen/listClose bound the block that carries profile links
	// (the first such block on a page) and the pagination controls
	// (the last one).
	listOpen  = "<ul"
	listClose = "</ul>"

	// nextMarker is the anchor text announcing another friends page.
	nextMarker = "next"
)

// Scanner extracts flags, profile links, and the pagination signal
// from page markup using fixed textual anchors.
type Scanner struct {
	// host is the target hostname; absolute links elsewhere are
	// discarded (domain containment).
	host string

	// appPrefix is the path namespace profile links live under.
	// Links outside it (login, logout, static assets) never enter
	// the frontier.
	appPrefix string
}

// NewScanner creates a Scanner for the given host. appPrefix is the
// path prefix profile links must carry, normally the site entry path.
func NewScanner(host, appPrefix string) *Scanner {
	return &Scanner{host: host, appPrefix: appPrefix}
}

// Flags returns every flag value on the page, in page order. A flag
// sits inside an element marked with the secret_flag class, after a
// "FLAG: " label, and runs to the next '<'.
func (s *Scanner) Flags(page string) []string {
	var flags []string
	rest := page

	for {
		m := strings.Index(rest, flagMarker)
		if m < 0 {
			return flags
		}
		rest = rest[m+len(flagMarker):]

		l := strings.Index(rest, flagLabel)
		if l < 0 {
			// Marker without a label; nothing to extract on this page
			// beyond what we already have.
			return flags
		}
		rest = rest[l+len(flagLabel):]

		end := strings.IndexByte(rest, '<')
		if end < 0 {
			return flags
		}

		if flag := strings.TrimSpace(rest[:end]); flag != "" {
			flags = append(flags, flag)
		}
		rest = rest[end:]
	}
}

// Links returns the profile paths referenced by the page's first
// unordered-list block. Absolute URLs pointing at a different host are
// skipped, same-host absolute URLs reduce to their path, and only
// paths under the app prefix survive.
func (s *Scanner) Links(page string) []string {
	block, ok := firstBlock(page)
	if !ok {
		return nil
	}

	var links []string
	for _, href := range anchorHrefs(block) {
		path, ok := s.containise(href)
		if !ok {
			continue
		}
		links = append(links, path)
	}
	return links
}

// HasNextPage reports whether the page's navigation block (the last
// unordered-list block) announces another friends page: an anchor
// whose text is the word "next".
func (s *Scanner) HasNextPage(page string) bool {
	block, ok := lastBlock(page)
	if !ok {
		return false
	}

	rest := block
	for {
		a := strings.Index(rest, "<a ")
		if a < 0 {
			return false
		}
		rest = rest[a:]

		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			return false
		}
		end := strings.Index(rest, "</a>")
		if end < 0 || end < gt {
			return false
		}

		text := strings.TrimSpace(rest[gt+1 : end])
		if strings.EqualFold(text, nextMarker) {
			return true
		}
		rest = rest[end+len("</a>"):]
	}
}

// containise applies domain containment and the app-prefix filter,
// reducing an href to the frontier's path form.
func (s *Scanner) containise(href string) (string, bool) {
	path := href

	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		u, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		if !strings.EqualFold(u.Hostname(), s.host) {
			return "", false
		}
		path = u.Path
	}

	if !strings.HasPrefix(path, s.appPrefix) {
		return "", false
	}
	return path, true
}

// firstBlock returns the content of the first <ul>...</ul> block.
func firstBlock(page string) (string, bool) {
	start := strings.Index(page, listOpen)
	if start < 0 {
		return "", false
	}
	rest := page[start:]
	end := strings.Index(rest, listClose)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// lastBlock returns the content of the last <ul>...</ul> block.
func lastBlock(page string) (string, bool) {
	start := strings.LastIndex(page, listOpen)
	if start < 0 {
		return "", false
	}
	rest := page[start:]
	end := strings.Index(rest, listClose)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// anchorHrefs extracts href attribute values from anchor tags in
// block. Both quote styles are handled because the site mixes them.
func anchorHrefs(block string) []string {
	var hrefs []string
	rest := block

	for {
		a := strings.Index(rest, "<a ")
		if a < 0 {
			return hrefs
		}
		rest = rest[a:]

		tagEnd := strings.IndexByte(rest, '>')
		if tagEnd < 0 {
			return hrefs
		}
		tag := rest[:tagEnd]
		rest = rest[tagEnd:]

		h := strings.Index(tag, "href=")
		if h < 0 {
			continue
		}
		val := tag[h+len("href="):]
		if val == "" {
			continue
		}

		quote := val[0]
		if quote != '\'' && quote != '"' {
			continue
		}
		val = val[1:]

		end := strings.IndexByte(val, quote)
		if end < 0 {
			continue
		}
		hrefs = append(hrefs, val[:end])
	}
}
