// internal/scraper/normalize_test.go
package scraper

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain title unchanged",
			input:    "Midnight City",
			expected: "Midnight City",
		},
		{
			name:     "feature credit stripped",
			input:    "Midnight City (feat. Susanne Sundfor)",
			expected: "Midnight City",
		},
		{
			name:     "featuring spelled out",
			input:    "Latch featuring Sam Smith",
			expected: "Latch",
		},
		{
			name:     "trailing remixer credit stripped",
			input:    "Strobe (Dimension Remix)",
			expected: "Strobe",
		},
		{
			name:     "dash separated remixer credit stripped",
			input:    "Strobe - Dimension Remix",
			expected: "Strobe",
		},
		{
			name:     "radio edit preserved",
			input:    "One More Time (Radio Edit)",
			expected: "One More Time (Radio Edit)",
		},
		{
			name:     "extended mix preserved",
			input:    "Opus (Extended Mix)",
			expected: "Opus (Extended Mix)",
		},
		{
			name:     "version marker preserved",
			input:    "Hurt (Acoustic Version)",
			expected: "Hurt (Acoustic Version)",
		},
		{
			name:     "feature and remix credits both stripped",
			input:    "Promises (feat. Sam Smith) [Sonny Fodera Remix]",
			expected: "Promises",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTitle(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			// Normalization must be stable under re-application.
			if again := NormalizeTitle(got); again != got {
				t.Errorf("NormalizeTitle not idempotent: %q -> %q -> %q", tt.input, got, again)
			}
		})
	}
}

func TestNormalizeArtist(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single artist unchanged",
			input:    "Daft Punk",
			expected: "Daft Punk",
		},
		{
			name:     "comma separated list",
			input:    "Calvin Harris, Dua Lipa",
			expected: "Calvin Harris, Dua Lipa",
		},
		{
			name:     "ampersand separator",
			input:    "Simon & Garfunkel",
			expected: "Simon, Garfunkel",
		},
		{
			name:     "feat separator",
			input:    "Disclosure feat. Sam Smith",
			expected: "Disclosure, Sam Smith",
		},
		{
			name:     "remix credit ordered first",
			input:    "Deadmau5, Dimension Remix",
			expected: "Dimension Remix, Deadmau5",
		},
		{
			name:     "mixed separators with remix credit",
			input:    "DJ Foo Remix, Bar, Baz feat. Qux",
			expected: "DJ Foo Remix, Bar, Baz, Qux",
		},
		{
			name:     "case insensitive dedupe keeps first spelling",
			input:    "MGMT, mgmt, Tame Impala",
			expected: "MGMT, Tame Impala",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeArtist(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeArtist(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "clock form passes through", input: "3:45", expected: "3:45"},
		{name: "whitespace trimmed", input: " 3:45 ", expected: "3:45"},
		{name: "bare seconds converted", input: "125", expected: "2:05"},
		{name: "bare seconds under a minute", input: "59", expected: "0:59"},
		{name: "ninety seconds", input: "90", expected: "1:30"},
		{name: "letters reduced away", input: "abc", expected: ""},
		{name: "empty input", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDuration(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeDuration(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
