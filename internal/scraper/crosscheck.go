// internal/scraper/crosscheck.go
package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of cross-checking one field. Provenance maps each
// candidate query key to the normalized value it produced; only queries
// that yielded a non-empty raw value appear.
type Result struct {
	Value      string            `json:"value"`
	Confidence float64           `json:"confidence"`
	Provenance map[string]string `json:"provenance,omitempty"`
}

// probeResult is the value/success pair returned by a single query probe.
// Probing never raises; a failed or empty probe simply reports ok=false.
type probeResult struct {
	value string
	ok    bool
}

// CrossChecker resolves one trustworthy value per field by extracting it
// through every candidate query, normalizing per field role, and scoring
// agreement across queries.
type CrossChecker struct {
	logger *logrus.Entry
	// onDiscrepancy, when set, is invoked once per field whose queries
	// disagree after normalization. Used for metrics.
	onDiscrepancy func(field string)
}

// NewCrossChecker creates a cross-checker logging through the given logger.
func NewCrossChecker(logger *logrus.Entry) *CrossChecker {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CrossChecker{logger: logger}
}

// OnDiscrepancy registers a callback fired whenever a field's candidate
// queries produce more than one distinct normalized value.
func (cc *CrossChecker) OnDiscrepancy(fn func(field string)) {
	cc.onDiscrepancy = fn
}

// CrossCheck extracts a field from the element through all candidate
// queries and reconciles the answers. A nil element or a field without
// queries yields a zero-confidence empty result, never an error.
func (cc *CrossChecker) CrossCheck(element *goquery.Selection, field Field) Result {
	if element == nil || len(field.Queries) == 0 {
		return Result{Provenance: map[string]string{}}
	}

	provenance := make(map[string]string, len(field.Queries))
	order := make([]string, 0, len(field.Queries))
	for _, query := range field.Queries {
		probe := cc.probe(element, query)
		if !probe.ok {
			continue
		}
		norm := normalizeForRole(field.Role, probe.value)
		key := query.Key()
		if _, dup := provenance[key]; !dup {
			order = append(order, key)
		}
		provenance[key] = norm
	}

	value := cc.selectCanonical(field.Role, provenance, order)
	confidence := confidenceScore(field.Role, provenance)
	if distinctValues(provenance) > 1 {
		cc.logger.WithFields(logrus.Fields{
			"field":      field.Name,
			"provenance": provenance,
		}).Warn("selector discrepancy")
		if cc.onDiscrepancy != nil {
			cc.onDiscrepancy(field.Name)
		}
	}
	return Result{Value: value, Confidence: confidence, Provenance: provenance}
}

// probe runs one candidate query against the element. Failures are logged
// at debug level and reported through the ok flag.
func (cc *CrossChecker) probe(element *goquery.Selection, query Query) probeResult {
	if strings.TrimSpace(query.Selector) == "" {
		return probeResult{}
	}
	sel := element.Find(query.Selector)
	if sel.Length() == 0 {
		return probeResult{}
	}
	var raw string
	if query.Attr == "" {
		raw = sel.First().Text()
	} else {
		attr, exists := sel.First().Attr(query.Attr)
		if !exists {
			cc.logger.WithFields(logrus.Fields{
				"selector": query.Selector,
				"attr":     query.Attr,
			}).Debug("attribute missing on matched element")
			return probeResult{}
		}
		raw = attr
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return probeResult{}
	}
	return probeResult{value: raw, ok: true}
}

// selectCanonical applies the field-specific tie-break over the normalized
// values, walking queries in registry order.
func (cc *CrossChecker) selectCanonical(role Role, provenance map[string]string, order []string) string {
	switch role {
	case RoleTitle:
		for _, key := range order {
			v := provenance[key]
			if v != "" && containsMixEdition(v) && !containsFeatureOrRemix(v) {
				return v
			}
		}
	case RoleArtist:
		for _, key := range order {
			v := provenance[key]
			if v != "" && startsWithRemixOrEdit(v) {
				return v
			}
		}
	case RoleDuration:
		freq := make(map[string]int, len(provenance))
		for _, key := range order {
			if v := provenance[key]; v != "" {
				freq[v]++
			}
		}
		best, bestCount := "", 0
		for _, key := range order {
			v := provenance[key]
			if v != "" && freq[v] > bestCount {
				best, bestCount = v, freq[v]
			}
		}
		if best != "" {
			return best
		}
	}
	for _, key := range order {
		if v := provenance[key]; v != "" {
			return v
		}
	}
	return ""
}

// confidenceScore maps cross-query agreement to [0,1]: full agreement is
// 1.0, disagreement decays as 1/distinct, and the high-stakes fields are
// additionally penalized.
func confidenceScore(role Role, provenance map[string]string) float64 {
	n := distinctValues(provenance)
	switch {
	case n == 0:
		return 0.0
	case n == 1:
		return 1.0
	}
	base := 1.0 / float64(n)
	if role == RoleTitle || role == RoleArtist || role == RoleDuration {
		return base * 0.7
	}
	return base
}

func distinctValues(provenance map[string]string) int {
	set := make(map[string]struct{}, len(provenance))
	for _, v := range provenance {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return len(set)
}
