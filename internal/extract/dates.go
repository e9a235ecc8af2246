package extract

import (
	"regexp"

	"github.com/pbechard/citecheck/internal/model"
)

// Year binding only crosses whitespace and commas. Anything else
// between a citation and a parenthesized year (prose, a semicolon, a
// neighboring citation) breaks the bond.
var (
	yearForwardRe  = regexp.MustCompile(`^[\s,]*` + yearParen)
	yearBackwardRe = regexp.MustCompile(`\(((?:17|18|19|20)\d{2})\)[\s,]*$`)
)

// ResolveYears binds a parenthesized 4-digit year to each citation
// that extraction left dateless. The forward search stops at the next
// citation span, so in a comma-delimited run the trailing year binds
// to the run's last member, never to an earlier one across it. A year
// claimed by one citation is never handed to another.
func (r *Resolver) ResolveYears(text string, cites []model.Citation) {
	claimed := make(map[int]bool)

	for i := range cites {
		if cites[i].ExtractedDate != "" {
			continue
		}
		year, at := r.yearForward(text, cites, i)
		if year == "" {
			year, at = r.yearBackward(text, cites, i)
		}
		if year == "" || claimed[at] {
			continue
		}
		claimed[at] = true
		cites[i].ExtractedDate = year
		cites[i].Confidence = clamp(cites[i].Confidence + bonusYear)
	}
}

// yearForward looks after the span, up to the year window or the next
// span, whichever is nearer. Returns the year and its absolute offset.
func (r *Resolver) yearForward(text string, cites []model.Citation, i int) (string, int) {
	start := cites[i].EndIndex
	limit := start + r.yearWindow
	if limit > len(text) {
		limit = len(text)
	}
	if i+1 < len(cites) && cites[i+1].StartIndex < limit {
		limit = cites[i+1].StartIndex
	}
	if start >= limit {
		return "", 0
	}

	loc := yearForwardRe.FindStringSubmatchIndex(text[start:limit])
	if loc == nil {
		return "", 0
	}
	// Group 2 is the year; group 1 is an optional court prefix
	// inside the parenthetical, e.g. "(9th Cir. 2003)".
	return text[start+loc[4] : start+loc[5]], start + loc[4]
}

// yearBackward handles the less common "(1954) 347 U.S. 483" order.
func (r *Resolver) yearBackward(text string, cites []model.Citation, i int) (string, int) {
	end := cites[i].StartIndex
	lo := end - r.yearWindow
	if lo < 0 {
		lo = 0
	}
	if i > 0 && cites[i-1].EndIndex > lo {
		lo = cites[i-1].EndIndex
	}
	if lo >= end {
		return "", 0
	}

	loc := yearBackwardRe.FindStringSubmatchIndex(text[lo:end])
	if loc == nil {
		return "", 0
	}
	return text[lo+loc[2] : lo+loc[3]], lo + loc[2]
}
