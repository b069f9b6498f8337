package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Anchors locating the hidden CSRF input on the login form. Keyed on
// the form template the same way the scanner keys on page markup.
const (
	csrfNameAnchor  = `name="csrfmiddlewaretoken"`
	csrfValueAnchor = `value="`
)

// Login establishes an authenticated session. It fetches the entry
// page (the client follows the redirect to the login form and banks
// the csrftoken cookie on the way), lifts the CSRF token out of the
// form, posts the credentials, and seeds the frontier with the
// profile links on the landing page. The session cookie arrives with
// the post-login redirect and rides along in the client's jar.
func (s *Spider) Login(ctx context.Context) error {
	form, err := s.client.Get(ctx, s.entryPath)
	if err != nil {
		return fmt.Errorf("fetch login form: %w", err)
	}

	token, err := extractCSRFToken(form.Body)
	if err != nil {
		return err
	}
	s.logger.Debug("lifted csrf token from login form")

	landing, err := s.client.PostForm(ctx, s.loginPath, loginForm(s.username, s.password, token, s.entryPath))
	if err != nil {
		return fmt.Errorf("post credentials: %w", err)
	}
	s.logger.Info("logged in", "username", s.username)

	links := s.scanner.Links(landing.Body)
	if len(links) == 0 {
		s.logger.Warn("landing page carries no profile links, crawl will end immediately")
	}
	for _, link := range links {
		s.frontier.Push(link)
	}
	return nil
}

// extractCSRFToken lifts the csrfmiddlewaretoken value out of the
// login form markup.
func extractCSRFToken(page string) (string, error) {
	i := strings.Index(page, csrfNameAnchor)
	if i < 0 {
		return "", ErrNoCSRFToken
	}
	rest := page[i+len(csrfNameAnchor):]

	v := strings.Index(rest, csrfValueAnchor)
	if v < 0 {
		return "", ErrNoCSRFToken
	}
	rest = rest[v+len(csrfValueAnchor):]

	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", ErrNoCSRFToken
	}

	token := rest[:end]
	if token == "" {
		return "", ErrNoCSRFToken
	}
	return token, nil
}

// loginForm renders the credential POST body. Field order matches the
// site's own form submission.
func loginForm(username, password, token, next string) string {
	return fmt.Sprintf("username=%s&password=%s&csrfmiddlewaretoken=%s&next=%s",
		url.QueryEscape(username),
		url.QueryEscape(password),
		url.QueryEscape(token),
		url.QueryEscape(next),
	)
}
