package extract

import (
	"testing"

	"github.com/pbechard/citecheck/internal/reporters"
)

func newTestExtractor() *Extractor {
	return NewExtractor(reporters.NewRegistry())
}

func TestExtractor_FullCitation(t *testing.T) {
	e := newTestExtractor()

	text := "Brown v. Board of Education, 347 U.S. 483 (1954)"
	cites := e.Extract(text)

	if len(cites) != 1 {
		t.Fatalf("Expected exactly 1 citation, got %d", len(cites))
	}
	c := cites[0]
	if c.ExtractedCaseName != "Brown v. Board of Education" {
		t.Errorf("Expected case name 'Brown v. Board of Education', got %q", c.ExtractedCaseName)
	}
	if c.ExtractedDate != "1954" {
		t.Errorf("Expected date '1954', got %q", c.ExtractedDate)
	}
	if c.Volume != "347" || c.Reporter != "U.S." || c.Page != "483" {
		t.Errorf("Expected 347 U.S. 483, got %s %s %s", c.Volume, c.Reporter, c.Page)
	}
	if c.StartIndex != 0 || c.EndIndex != len(text) {
		t.Errorf("Expected span to cover the whole citation, got [%d,%d)", c.StartIndex, c.EndIndex)
	}
	if c.Confidence < 0.9 {
		t.Errorf("Expected high confidence for a full citation, got %f", c.Confidence)
	}
}

func TestExtractor_ParallelRun(t *testing.T) {
	e := newTestExtractor()

	text := "In State v. Hill, 123 Wn.2d 641, 870 P.2d 313 (1994), the court held otherwise."
	cites := e.Extract(text)

	if len(cites) != 2 {
		t.Fatalf("Expected 2 citations from the parallel run, got %d", len(cites))
	}
	if cites[0].Reporter != "Wash. 2d" || cites[0].Volume != "123" || cites[0].Page != "641" {
		t.Errorf("First citation wrong: %s %s %s", cites[0].Volume, cites[0].Reporter, cites[0].Page)
	}
	if cites[1].Reporter != "P.2d" || cites[1].Volume != "870" || cites[1].Page != "313" {
		t.Errorf("Second citation wrong: %s %s %s", cites[1].Volume, cites[1].Reporter, cites[1].Page)
	}
	// The second member's volume must not be eaten as a pinpoint of
	// the first.
	if cites[0].Pinpoint != "" {
		t.Errorf("Expected no pinpoint on first citation, got %q", cites[0].Pinpoint)
	}
	if cites[0].ExtractedCaseName != "State v. Hill" {
		t.Errorf("Expected name on first citation, got %q", cites[0].ExtractedCaseName)
	}
}

func TestExtractor_SpansNeverOverlap(t *testing.T) {
	e := newTestExtractor()

	text := "Compare Brown v. Board of Education, 347 U.S. 483, 489 (1954), with Plessy v. Ferguson, 163 U.S. 537 (1896); see also 80 P.3d 598 and 150 Wn.2d 674, 680."
	cites := e.Extract(text)

	if len(cites) < 4 {
		t.Fatalf("Expected at least 4 citations, got %d", len(cites))
	}
	for i, c := range cites {
		if c.StartIndex < 0 || c.EndIndex > len(text) || c.StartIndex >= c.EndIndex {
			t.Errorf("Citation %d has invalid span [%d,%d)", i, c.StartIndex, c.EndIndex)
		}
		if c.Text != text[c.StartIndex:c.EndIndex] {
			t.Errorf("Citation %d text does not match its span", i)
		}
		if i > 0 && c.StartIndex < cites[i-1].EndIndex {
			t.Errorf("Citation %d overlaps previous: [%d,%d) after [%d,%d)",
				i, c.StartIndex, c.EndIndex, cites[i-1].StartIndex, cites[i-1].EndIndex)
		}
	}
}

func TestExtractor_BareNumbersNeverEmitted(t *testing.T) {
	e := newTestExtractor()

	texts := []string{
		"In 1954 the court heard 42 cases across 7 circuits.",
		"Page 483 of volume 347 discusses the holding.",
		"",
		"   \n\t  ",
		"No citations here at all.",
	}
	for _, text := range texts {
		if cites := e.Extract(text); len(cites) != 0 {
			t.Errorf("Expected 0 citations for %q, got %d", text, len(cites))
		}
	}
}

func TestExtractor_UnknownReporterRejected(t *testing.T) {
	e := newTestExtractor()

	// "Bogus. Rep." is not in the registry; only the real citation
	// should come out.
	text := "See 12 Bogus. Rep. 345 and 347 U.S. 483."
	cites := e.Extract(text)

	if len(cites) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(cites))
	}
	if cites[0].Reporter != "U.S." {
		t.Errorf("Expected U.S. citation, got %q", cites[0].Reporter)
	}
}

func TestExtractor_PinpointAttached(t *testing.T) {
	e := newTestExtractor()

	text := "See 347 U.S. 483, 489 (1954) for the relevant passage."
	cites := e.Extract(text)

	if len(cites) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(cites))
	}
	if cites[0].Pinpoint != "489" {
		t.Errorf("Expected pinpoint '489', got %q", cites[0].Pinpoint)
	}
	if got := text[cites[0].StartIndex:cites[0].EndIndex]; got != "347 U.S. 483, 489" {
		t.Errorf("Expected span to include the pinpoint, got %q", got)
	}
}

func TestExtractor_PinpointRange(t *testing.T) {
	e := newTestExtractor()

	text := "Miranda v. Arizona, 384 U.S. 436, 444-45 (1966)"
	cites := e.Extract(text)

	if len(cites) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(cites))
	}
	if cites[0].Pinpoint != "444-45" {
		t.Errorf("Expected pinpoint range '444-45', got %q", cites[0].Pinpoint)
	}
}

func TestExtractor_Idempotent(t *testing.T) {
	e := newTestExtractor()

	text := "Brown v. Board of Education, 347 U.S. 483 (1954); State v. Hill, 123 Wn.2d 641, 870 P.2d 313 (1994)."

	first := e.Extract(text)
	second := e.Extract(text)

	if len(first) != len(second) {
		t.Fatalf("Expected identical runs, got %d then %d citations", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Citation %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestResolveOverlaps_LongerSpanWins(t *testing.T) {
	e := newTestExtractor()

	spans := []Span{
		{Start: 0, End: 40, Strategy: StrategyPattern, Reporter: "U.S.", Confidence: 0.95},
		{Start: 28, End: 40, Strategy: StrategyGrammar, Reporter: "U.S.", Confidence: 0.65},
	}
	kept := e.resolveOverlaps(spans)

	if len(kept) != 1 {
		t.Fatalf("Expected 1 span after overlap resolution, got %d", len(kept))
	}
	if kept[0].Strategy != StrategyPattern || kept[0].End-kept[0].Start != 40 {
		t.Errorf("Expected the longer pattern span to win, got %+v", kept[0])
	}
}

func TestResolveOverlaps_TieBreakByReporterClass(t *testing.T) {
	e := newTestExtractor()

	// Equal-length overlapping spans: federal goes to pattern,
	// state and regional go to grammar.
	cases := []struct {
		reporter string
		want     string
	}{
		{"U.S.", StrategyPattern},
		{"F.3d", StrategyPattern},
		{"F. Supp. 2d", StrategyPattern},
		{"Wash. 2d", StrategyGrammar},
		{"P.3d", StrategyGrammar},
		{"So. 2d", StrategyGrammar},
	}

	for _, tc := range cases {
		spans := []Span{
			{Start: 0, End: 15, Strategy: StrategyGrammar, Reporter: tc.reporter},
			{Start: 0, End: 15, Strategy: StrategyPattern, Reporter: tc.reporter},
		}
		kept := e.resolveOverlaps(spans)
		if len(kept) != 1 {
			t.Fatalf("Expected 1 span for %s, got %d", tc.reporter, len(kept))
		}
		if kept[0].Strategy != tc.want {
			t.Errorf("Tie-break for %s: expected %s to win, got %s", tc.reporter, tc.want, kept[0].Strategy)
		}
	}
}

func TestResolveOverlaps_DisjointSpansAllKept(t *testing.T) {
	e := newTestExtractor()

	spans := []Span{
		{Start: 50, End: 64, Strategy: StrategyGrammar, Reporter: "P.3d"},
		{Start: 0, End: 14, Strategy: StrategyGrammar, Reporter: "Wash. 2d"},
		{Start: 20, End: 45, Strategy: StrategyPattern, Reporter: "U.S."},
	}
	kept := e.resolveOverlaps(spans)

	if len(kept) != 3 {
		t.Fatalf("Expected all 3 disjoint spans kept, got %d", len(kept))
	}
	for i := 1; i < len(kept); i++ {
		if kept[i].Start < kept[i-1].End {
			t.Errorf("Spans out of order or overlapping after resolution")
		}
	}
}

func TestExtractor_InReCaption(t *testing.T) {
	e := newTestExtractor()

	text := "In re Detention of Turay, 139 Wn.2d 379 (1999)"
	cites := e.Extract(text)

	if len(cites) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(cites))
	}
	if cites[0].ExtractedCaseName != "In re Detention of Turay" {
		t.Errorf("Expected In re caption, got %q", cites[0].ExtractedCaseName)
	}
	if cites[0].ExtractedDate != "1999" {
		t.Errorf("Expected date '1999', got %q", cites[0].ExtractedDate)
	}
}

func TestExtractor_CourtPrefixInYearParen(t *testing.T) {
	e := newTestExtractor()

	text := "United States v. Carter, 530 F.3d 565 (7th Cir. 2008)"
	cites := e.Extract(text)

	if len(cites) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(cites))
	}
	if cites[0].ExtractedDate != "2008" {
		t.Errorf("Expected year '2008' from court parenthetical, got %q", cites[0].ExtractedDate)
	}
	if cites[0].Reporter != "F.3d" {
		t.Errorf("Expected reporter F.3d, got %q", cites[0].Reporter)
	}
}
