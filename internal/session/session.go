// Package session tracks whether the browser profile is signed in to the
// target site. Authentication itself is manual: a human signs in once
// against a persistent profile directory, and scrape runs reuse it.
package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const markerFile = ".soundscrape-authenticated"

// Session inspects pages and the browser profile for sign-in state.
type Session struct {
	profileDir string
	logger     *logrus.Entry
}

// New builds a session over a persistent profile directory. profileDir
// may be empty when no profile persistence is configured.
func New(profileDir string, logger *logrus.Entry) *Session {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{profileDir: profileDir, logger: logger}
}

// signedOutSelectors match elements that only render for anonymous
// visitors.
var signedOutSelectors = []string{
	"a[href*='signin']",
	"a[href*='/login']",
	"[aria-label='Sign in']",
	"[aria-label='Sign In']",
}

// signedInSelectors match account chrome that only renders after login.
var signedInSelectors = []string{
	"[aria-label='Profile']",
	"[aria-label='Account']",
	"[data-testid='account-menu']",
	"a[href*='/account']",
	"music-button[icon-name='profile']",
}

// SignedIn decides the sign-in state from a parsed page. Signed-out
// markers win over signed-in markers since sites keep account chrome in
// hidden templates.
func (s *Session) SignedIn(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	for _, sel := range signedOutSelectors {
		if doc.Find(sel).Length() > 0 {
			s.logger.WithField("selector", sel).Debug("signed-out marker present")
			return false
		}
	}
	for _, sel := range signedInSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	// Fallback: a visible "sign in" text anywhere in navigation means
	// anonymous.
	nav := strings.ToLower(doc.Find("nav, header").Text())
	if strings.Contains(nav, "sign in") {
		return false
	}
	return s.HasProfile()
}

// HasProfile reports whether a previous run marked the profile directory
// as authenticated.
func (s *Session) HasProfile() bool {
	if s.profileDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.profileDir, markerFile))
	return err == nil
}

// MarkAuthenticated records that the current profile has a valid login,
// so later runs can skip the page heuristics.
func (s *Session) MarkAuthenticated() error {
	if s.profileDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.profileDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.profileDir, markerFile), []byte("ok\n"), 0o644)
}
