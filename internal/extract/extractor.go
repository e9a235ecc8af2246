package extract

import (
	"regexp"
	"sort"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
)

// Span is one candidate citation produced by a single strategy.
// Candidates from different strategies may overlap; Resolve picks the
// winners.
type Span struct {
	Start    int
	End      int
	Strategy string

	Volume   string
	Reporter string // canonical form
	Page     string
	Pinpoint string

	CaseName string
	Year     string

	Confidence float64
}

// Extractor produces ordered, non-overlapping citation spans from raw
// text. Two independent strategies run over the document; overlapping
// candidates are resolved longest-span-wins, with equal-length ties
// decided per reporter class. Malformed or empty input yields an empty
// list, never an error.
type Extractor struct {
	registry *reporters.Registry
	pattern  *patternMatcher
	grammar  *grammarMatcher
}

func NewExtractor(reg *reporters.Registry) *Extractor {
	return &Extractor{
		registry: reg,
		pattern:  newPatternMatcher(reg),
		grammar:  newGrammarMatcher(reg),
	}
}

// Scan runs both strategies and returns their raw candidate spans.
func (e *Extractor) Scan(text string) []Span {
	if text == "" {
		return nil
	}
	spans := e.pattern.scan(text)
	spans = append(spans, e.grammar.scan(text)...)
	return spans
}

// Resolve turns candidate spans into the final citation list: overlaps
// resolved, pinpoints attached, records ordered by position. The
// returned slice is never nil.
func (e *Extractor) Resolve(text string, spans []Span) []model.Citation {
	winners := e.resolveOverlaps(spans)
	attachPinpoints(text, winners)

	cites := make([]model.Citation, 0, len(winners))
	for _, s := range winners {
		cites = append(cites, model.Citation{
			Text:              text[s.Start:s.End],
			Volume:            s.Volume,
			Reporter:          s.Reporter,
			Page:              s.Page,
			Pinpoint:          s.Pinpoint,
			StartIndex:        s.Start,
			EndIndex:          s.End,
			ExtractedCaseName: s.CaseName,
			ExtractedDate:     s.Year,
			Confidence:        s.Confidence,
		})
	}
	return cites
}

// Extract is Scan followed by Resolve.
func (e *Extractor) Extract(text string) []model.Citation {
	return e.Resolve(text, e.Scan(text))
}

// resolveOverlaps keeps the longer of any two overlapping spans.
// Equal-length overlaps from different strategies go to the strategy
// with better precision for the reporter class: pattern for federal
// reporters, grammar for state and regional ones.
func (e *Extractor) resolveOverlaps(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return (sorted[i].End - sorted[i].Start) > (sorted[j].End - sorted[j].Start)
	})

	var kept []Span
	for _, s := range sorted {
		if len(kept) == 0 {
			kept = append(kept, s)
			continue
		}
		last := &kept[len(kept)-1]
		if s.Start >= last.End {
			kept = append(kept, s)
			continue
		}
		// Overlap: decide which span survives.
		if e.wins(s, *last) {
			kept[len(kept)-1] = s
		}
	}
	return kept
}

// wins reports whether challenger beats incumbent for one overlap.
func (e *Extractor) wins(challenger, incumbent Span) bool {
	cl := challenger.End - challenger.Start
	il := incumbent.End - incumbent.Start
	if cl != il {
		return cl > il
	}
	if challenger.Strategy == incumbent.Strategy {
		return false
	}
	return challenger.Strategy == e.preferredStrategy(challenger.Reporter)
}

// preferredStrategy encodes the equal-length tie-break per reporter
// class.
func (e *Extractor) preferredStrategy(canonical string) string {
	class, ok := e.registry.ClassOf(canonical)
	if ok && class == reporters.ClassFederal {
		return StrategyPattern
	}
	return StrategyGrammar
}

var pinpointRe = regexp.MustCompile(`^,\s*(\d{1,5}(?:[-–]\d{1,5})?)\b`)

// attachPinpoints claims a trailing ", 489" style pinpoint for spans
// that do not already carry one. The pinpoint region must end before
// the next span starts, so the volume of the next citation in a
// comma-delimited run is never mistaken for a pinpoint.
func attachPinpoints(text string, spans []Span) {
	for i := range spans {
		if spans[i].Pinpoint != "" {
			continue
		}
		limit := len(text)
		if i+1 < len(spans) && spans[i+1].Start < limit {
			limit = spans[i+1].Start
		}
		region := text[spans[i].End:limit]
		loc := pinpointRe.FindStringSubmatchIndex(region)
		if loc == nil {
			continue
		}
		spans[i].Pinpoint = region[loc[2]:loc[3]]
		spans[i].End += loc[3]
	}
}
