package session

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing test html: %v", err)
	}
	return doc
}

func TestSignedInDetection(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected bool
	}{
		{
			name:     "sign in link means anonymous",
			html:     `<html><body><a href="/signin">Sign in</a></body></html>`,
			expected: false,
		},
		{
			name:     "account menu means signed in",
			html:     `<html><body><div data-testid="account-menu">Me</div></body></html>`,
			expected: true,
		},
		{
			name:     "sign out marker wins over account chrome",
			html:     `<html><body><a href="/login">Log in</a><div data-testid="account-menu">Me</div></body></html>`,
			expected: false,
		},
		{
			name:     "sign in text in navigation",
			html:     `<html><body><nav>Home | Sign In</nav></body></html>`,
			expected: false,
		},
		{
			name:     "nothing recognizable and no profile",
			html:     `<html><body><p>content</p></body></html>`,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("", nil)
			if got := s.SignedIn(docFromHTML(t, tt.html)); got != tt.expected {
				t.Errorf("SignedIn = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSignedInNilDocument(t *testing.T) {
	if New("", nil).SignedIn(nil) {
		t.Error("nil document reported signed in")
	}
}

func TestProfileMarker(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	if s.HasProfile() {
		t.Error("fresh profile reported authenticated")
	}
	if err := s.MarkAuthenticated(); err != nil {
		t.Fatalf("MarkAuthenticated: %v", err)
	}
	if !s.HasProfile() {
		t.Error("marker not detected after MarkAuthenticated")
	}

	// With an authenticated profile, an unrecognizable page counts as
	// signed in.
	doc := docFromHTML(t, `<html><body><p>content</p></body></html>`)
	if !s.SignedIn(doc) {
		t.Error("profile marker should break the tie for unrecognizable pages")
	}
}

func TestMarkAuthenticatedWithoutProfileDir(t *testing.T) {
	if err := New("", nil).MarkAuthenticated(); err != nil {
		t.Errorf("MarkAuthenticated without a profile dir: %v", err)
	}
}
