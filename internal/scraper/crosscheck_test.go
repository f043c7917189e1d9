// internal/scraper/crosscheck_test.go
package scraper

import (
	"math"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func rowFromHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing test html: %v", err)
	}
	row := doc.Find(".row").First()
	if row.Length() == 0 {
		t.Fatal("test html has no .row element")
	}
	return row
}

func TestCrossCheckAgreement(t *testing.T) {
	row := rowFromHTML(t, `<div class="row">
		<span class="t1">Midnight City (feat. Susanne Sundfor)</span>
		<span class="t2">Midnight City</span>
	</div>`)
	field := Field{Name: "title", Role: RoleTitle, Queries: []Query{
		{Selector: ".t1"},
		{Selector: ".t2"},
	}}

	cc := NewCrossChecker(nil)
	res := cc.CrossCheck(row, field)

	if res.Value != "Midnight City" {
		t.Errorf("value = %q, want %q", res.Value, "Midnight City")
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for agreeing queries", res.Confidence)
	}
	if len(res.Provenance) != 2 {
		t.Errorf("provenance size = %d, want 2", len(res.Provenance))
	}
}

func TestCrossCheckDisagreement(t *testing.T) {
	row := rowFromHTML(t, `<div class="row">
		<span class="t1">Song One</span>
		<span class="t2">Song Two</span>
	</div>`)
	field := Field{Name: "title", Role: RoleTitle, Queries: []Query{
		{Selector: ".t1"},
		{Selector: ".t2"},
	}}

	cc := NewCrossChecker(nil)
	var flagged []string
	cc.OnDiscrepancy(func(name string) { flagged = append(flagged, name) })

	res := cc.CrossCheck(row, field)

	if res.Value != "Song One" {
		t.Errorf("value = %q, want first candidate on tie", res.Value)
	}
	want := (1.0 / 2.0) * 0.7
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", res.Confidence, want)
	}
	if len(flagged) != 1 || flagged[0] != "title" {
		t.Errorf("discrepancy callback = %v, want one call for title", flagged)
	}
}

func TestCrossCheckTitlePrefersEditionMarker(t *testing.T) {
	row := rowFromHTML(t, `<div class="row">
		<span class="t1">One More Time</span>
		<span class="t2">One More Time (Radio Edit)</span>
	</div>`)
	field := Field{Name: "title", Role: RoleTitle, Queries: []Query{
		{Selector: ".t1"},
		{Selector: ".t2"},
	}}

	res := NewCrossChecker(nil).CrossCheck(row, field)
	if res.Value != "One More Time (Radio Edit)" {
		t.Errorf("value = %q, want the edition-marked candidate", res.Value)
	}
}

func TestCrossCheckArtistPrefersRemixCredit(t *testing.T) {
	row := rowFromHTML(t, `<div class="row">
		<span class="a1">Deadmau5</span>
		<span class="a2">Dimension Remix, Deadmau5</span>
	</div>`)
	field := Field{Name: "artist", Role: RoleArtist, Queries: []Query{
		{Selector: ".a1"},
		{Selector: ".a2"},
	}}

	res := NewCrossChecker(nil).CrossCheck(row, field)
	if res.Value != "Dimension Remix, Deadmau5" {
		t.Errorf("value = %q, want the remix-credited candidate", res.Value)
	}
}

func TestCrossCheckDurationPicksMode(t *testing.T) {
	row := rowFromHTML(t, `<div class="row">
		<span class="d1">3:45</span>
		<span class="d2">3:45</span>
		<span class="d3">3:46</span>
	</div>`)
	field := Field{Name: "duration", Role: RoleDuration, Queries: []Query{
		{Selector: ".d1"},
		{Selector: ".d2"},
		{Selector: ".d3"},
	}}

	res := NewCrossChecker(nil).CrossCheck(row, field)
	if res.Value != "3:45" {
		t.Errorf("value = %q, want the most frequent duration", res.Value)
	}
	if res.Confidence >= 1.0 {
		t.Errorf("confidence = %v, want penalty for disagreement", res.Confidence)
	}
}

func TestCrossCheckAttributeQueries(t *testing.T) {
	row := rowFromHTML(t, `<div class="row">
		<a class="link" href="/tracks/B0ABC123">open</a>
		<a class="nolink">closed</a>
	</div>`)
	field := Field{Name: "url", Role: RoleURL, Queries: []Query{
		{Selector: ".nolink", Attr: "href"},
		{Selector: ".link", Attr: "href"},
	}}

	res := NewCrossChecker(nil).CrossCheck(row, field)
	if res.Value != "/tracks/B0ABC123" {
		t.Errorf("value = %q, want href of matched anchor", res.Value)
	}
	// The missing attribute must not appear in provenance.
	if _, ok := res.Provenance[".nolink@href"]; ok {
		t.Error("provenance contains a query whose attribute was absent")
	}
}

func TestCrossCheckNilAndEmptyInputs(t *testing.T) {
	cc := NewCrossChecker(nil)

	res := cc.CrossCheck(nil, Field{Name: "title", Role: RoleTitle, Queries: []Query{{Selector: ".t"}}})
	if res.Value != "" || res.Confidence != 0 {
		t.Errorf("nil element: got %+v, want zero result", res)
	}

	row := rowFromHTML(t, `<div class="row"><span class="t">x</span></div>`)
	res = cc.CrossCheck(row, Field{Name: "releaseDate", Role: RoleDerived})
	if res.Value != "" || res.Confidence != 0 {
		t.Errorf("field without queries: got %+v, want zero result", res)
	}

	res = cc.CrossCheck(row, Field{Name: "title", Role: RoleTitle, Queries: []Query{{Selector: ".missing"}}})
	if res.Value != "" || res.Confidence != 0 || len(res.Provenance) != 0 {
		t.Errorf("no matching query: got %+v, want zero result", res)
	}
}
