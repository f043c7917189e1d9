// internal/scraper/normalize.go
package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	featCreditRe = regexp.MustCompile(`(?i)\s*[-(\[]?\s*(?:feat\.?|featuring)\s+[^)\]]*[)\]]?`)
	trailCreditRe = regexp.MustCompile(`(?i)(\s*[-(\[]?\s*)([\w'.]+(?:\s+[\w'.]+)*?\s+(?:Remix|Edit|Mix|Version))([)\]]?)\s*$`)
	mixEditionRe  = regexp.MustCompile(`(?i)(Radio Edit|Extended Mix|Remix|Edit|Version|Club Mix|Original Mix)`)
	featRemixRe   = regexp.MustCompile(`(?i)(feat\.?|featuring|remix by)`)
	artistSplitRe = regexp.MustCompile(`(?i)\s*(?:,|;|&|/|\bfeat\.?\s|\bfeaturing\b|\bwith\b|\bvs\.?\s|\bvs\b)\s*`)
	bareSecondsRe = regexp.MustCompile(`^\d{1,3}$`)
	clockRe       = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	nonClockRe    = regexp.MustCompile(`[^0-9:]`)
)

// editionMarkers are trailing credits that describe the edition of the
// track rather than crediting a remixer; they survive normalization.
var editionMarkers = map[string]struct{}{
	"radio edit":   {},
	"extended mix": {},
	"club mix":     {},
	"original mix": {},
	"version":      {},
}

// NormalizeTitle strips feature credits and trailing remixer credits while
// preserving edition markers. The result is stable under re-normalization.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	title = featCreditRe.ReplaceAllString(title, "")
	for {
		m := trailCreditRe.FindStringSubmatchIndex(title)
		if m == nil {
			break
		}
		credit := strings.ToLower(strings.TrimSpace(title[m[4]:m[5]]))
		_, keep := editionMarkers[credit]
		if keep || strings.HasSuffix(credit, "version") {
			break
		}
		title = title[:m[0]]
	}
	return strings.TrimSpace(title)
}

// NormalizeArtist splits combined artist strings on the common separators,
// orders remix/edit-credited names first, and de-duplicates preserving
// order.
func NormalizeArtist(artist string) string {
	if artist == "" {
		return ""
	}
	parts := artistSplitRe.Split(artist, -1)
	var remixers, mains []string
	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		low := strings.ToLower(p)
		if strings.Contains(low, "remix") || strings.Contains(low, "edit") {
			remixers = append(remixers, p)
		} else {
			mains = append(mains, p)
		}
	}
	seen := make(map[string]struct{}, len(remixers)+len(mains))
	var out []string
	for _, p := range append(remixers, mains...) {
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// NormalizeDuration standardizes a duration to m:ss. Bare second counts are
// converted; values already in clock form pass through; everything else is
// reduced to its digit/colon content.
func NormalizeDuration(duration string) string {
	if duration == "" {
		return ""
	}
	duration = nonClockRe.ReplaceAllString(duration, "")
	if bareSecondsRe.MatchString(duration) {
		sec, err := strconv.Atoi(duration)
		if err == nil {
			return fmt.Sprintf("%d:%02d", sec/60, sec%60)
		}
	}
	if clockRe.MatchString(duration) {
		return duration
	}
	return duration
}

// normalizeForRole dispatches to the field-specific normalizer; fields
// without one pass through with surrounding whitespace trimmed.
func normalizeForRole(role Role, value string) string {
	switch role {
	case RoleTitle:
		return NormalizeTitle(value)
	case RoleArtist:
		return NormalizeArtist(value)
	case RoleDuration:
		return NormalizeDuration(value)
	default:
		return strings.TrimSpace(value)
	}
}

// containsMixEdition reports whether a title carries mix/edition info.
func containsMixEdition(title string) bool {
	return mixEditionRe.MatchString(title)
}

// containsFeatureOrRemix reports whether a title still carries a feature or
// remixer credit.
func containsFeatureOrRemix(title string) bool {
	return featRemixRe.MatchString(title)
}

// startsWithRemixOrEdit reports whether the leading artist name is a
// remix/edit credit.
func startsWithRemixOrEdit(artist string) bool {
	first, _, _ := strings.Cut(artist, ",")
	first = strings.ToLower(strings.TrimSpace(first))
	return strings.Contains(first, "remix") || strings.Contains(first, "edit")
}
