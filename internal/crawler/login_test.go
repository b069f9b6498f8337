package crawler

import (
	"errors"
	"testing"
)

// TestExtractCSRFToken verifies token extraction from the login form's
// hidden input.
func TestExtractCSRFToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    string
		want    string
		wantErr bool
	}{
		{
			name: "hidden input in form order",
			page: `<input type="hidden" name="csrfmiddlewaretoken" value="abc123">`,
			want: "abc123",
		},
		{
			name: "attributes between name and value",
			page: `<input name="csrfmiddlewaretoken" id="id_csrf" value="t0k3n">`,
			want: "t0k3n",
		},
		{
			name: "token inside a full page",
			page: `<html><body><form method="post">
<input type="hidden" name="csrfmiddlewaretoken" value="8f14e45fceea167a">
<input type="text" name="username">
</form></body></html>`,
			want: "8f14e45fceea167a",
		},
		{
			name:    "no hidden input",
			page:    `<html><body><p>plain page</p></body></html>`,
			wantErr: true,
		},
		{
			name:    "empty value",
			page:    `<input name="csrfmiddlewaretoken" value="">`,
			wantErr: true,
		},
		{
			name:    "unterminated value",
			page:    `<input name="csrfmiddlewaretoken" value="runs-off`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := extractCSRFToken(tt.page)
			if tt.wantErr {
				if !errors.Is(err, ErrNoCSRFToken) {
					t.Fatalf("expected ErrNoCSRFToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractCSRFToken failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("extractCSRFToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLoginForm verifies the credential body: field order fixed,
// every value URL-encoded.
func TestLoginForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                            string
		username, password, token, next string
		want                            string
	}{
		{
			name:     "plain credentials",
			username: "alice",
			password: "s3cret",
			token:    "abc123",
			next:     "/fakebook/",
			want:     "username=alice&password=s3cret&csrfmiddlewaretoken=abc123&next=%2Ffakebook%2F",
		},
		{
			name:     "reserved characters escaped",
			username: "team one",
			password: "p&ss=word",
			token:    "tok+en",
			next:     "/fakebook/",
			want:     "username=team+one&password=p%26ss%3Dword&csrfmiddlewaretoken=tok%2Ben&next=%2Ffakebook%2F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := loginForm(tt.username, tt.password, tt.token, tt.next); got != tt.want {
				t.Errorf("loginForm() = %q, want %q", got, tt.want)
			}
		})
	}
}
