package extract

import (
	"fmt"
	"regexp"

	"github.com/pbechard/citecheck/internal/reporters"
)

// Strategy names recorded on extracted spans
const (
	StrategyPattern = "pattern"
	StrategyGrammar = "grammar"
)

// Confidence base values per strategy, plus bonuses for context the
// span carries. A full "Party v. Party" name is worth more than an
// "In re" caption, which is worth more than a trailing-phrase guess.
const (
	patternBase      = 0.80
	grammarBase      = 0.65
	bonusFullName    = 0.10
	bonusInReName    = 0.07
	bonusPartialName = 0.03
	bonusYear        = 0.05
)

// Regexp fragments shared by the pattern matcher and the resolver.
// party matches one case-caption party: a capitalized word followed by
// further words, which may be lowercase connectives or abbreviations.
const (
	party     = `[A-Z][A-Za-z'.\-]*(?:\s+[A-Za-z'.&\-]+)*`
	inReLead  = `(?:In re|In the Matter of|Matter of|Ex parte)`
	vsSep     = `\s+v(?:s)?\.?\s+`
	citeTail  = `(\d{1,4})\s+(%s)\s+(\d{1,5})`
	pinGroup  = `(?:,\s*(\d{1,5}(?:[-–]\d{1,5})?))?`
	yearParen = `\(([^()]*?\b)?((?:17|18|19|20)\d{2})\)`
)

// Shape checks applied to candidate names after cleanup.
var (
	validCaseName = regexp.MustCompile(`^` + party + vsSep + party + `$`)
	validInReName = regexp.MustCompile(`^` + inReLead + `\s+` + party + `$`)
)

// patternMatcher finds full-shape citations: a case caption followed
// by a volume/reporter/page triple, optionally with a pinpoint page
// and a parenthesized year. Shapes are tried in decreasing
// specificity, and a start position claimed by a more specific shape
// is never re-claimed by a weaker one.
type patternMatcher struct {
	registry *reporters.Registry

	caseFull *regexp.Regexp // Brown v. Board of Education, 347 U.S. 483, 489 (1954)
	inReFull *regexp.Regexp // In re Marriage of Littlefield, 133 Wn.2d 39 (1997)
	caseBare *regexp.Regexp // Hubbard v. Spokane County, 146 Wn.2d 699
	inReBare *regexp.Regexp // In re Detention of Turay, 139 Wn.2d 379
}

func newPatternMatcher(reg *reporters.Registry) *patternMatcher {
	tail := fmt.Sprintf(citeTail, reg.Alternation())
	caseName := `(` + party + vsSep + party + `)`
	inReName := `(` + inReLead + `\s+` + party + `)`

	return &patternMatcher{
		registry: reg,
		caseFull: regexp.MustCompile(caseName + `,?\s+` + tail + pinGroup + `\s*` + yearParen),
		inReFull: regexp.MustCompile(inReName + `,?\s+` + tail + pinGroup + `\s*` + yearParen),
		caseBare: regexp.MustCompile(caseName + `,?\s+` + tail),
		inReBare: regexp.MustCompile(inReName + `,?\s+` + tail),
	}
}

// scan runs all shapes over the text. Claimed start offsets are shared
// across shapes so each citation is emitted once, by its most specific
// match.
func (m *patternMatcher) scan(text string) []Span {
	var spans []Span
	claimed := make(map[int]bool)

	spans = m.scanFull(text, m.caseFull, validCaseName, bonusFullName, claimed, spans)
	spans = m.scanFull(text, m.inReFull, validInReName, bonusInReName, claimed, spans)
	spans = m.scanBare(text, m.caseBare, validCaseName, bonusFullName, claimed, spans)
	spans = m.scanBare(text, m.inReBare, validInReName, bonusInReName, claimed, spans)

	return spans
}

// scanFull handles the year-anchored shapes. Submatches: 1 name,
// 2 volume, 3 reporter, 4 page, 5 pinpoint, 6 court prefix, 7 year.
func (m *patternMatcher) scanFull(text string, re, valid *regexp.Regexp, nameBonus float64, claimed map[int]bool, spans []Span) []Span {
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		if claimed[idx[0]] {
			continue
		}
		canonical, ok := m.registry.Normalize(text[idx[6]:idx[7]])
		if !ok {
			continue
		}
		claimed[idx[0]] = true

		name, start := captionName(text, idx, valid)
		span := Span{
			Start:      start,
			End:        idx[1],
			Strategy:   StrategyPattern,
			CaseName:   name,
			Volume:     text[idx[4]:idx[5]],
			Reporter:   canonical,
			Page:       text[idx[8]:idx[9]],
			Year:       text[idx[14]:idx[15]],
			Confidence: patternBase + bonusYear,
		}
		if name != "" {
			span.Confidence += nameBonus
		}
		if idx[10] >= 0 {
			span.Pinpoint = text[idx[10]:idx[11]]
		}
		spans = append(spans, span)
	}
	return spans
}

// scanBare handles shapes without a trailing year. Pinpoints are left
// to the analyze step, which knows where neighboring citations start.
// Submatches: 1 name, 2 volume, 3 reporter, 4 page.
func (m *patternMatcher) scanBare(text string, re, valid *regexp.Regexp, nameBonus float64, claimed map[int]bool, spans []Span) []Span {
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		if claimed[idx[0]] {
			continue
		}
		canonical, ok := m.registry.Normalize(text[idx[6]:idx[7]])
		if !ok {
			continue
		}
		claimed[idx[0]] = true

		name, start := captionName(text, idx, valid)
		span := Span{
			Start:      start,
			End:        idx[1],
			Strategy:   StrategyPattern,
			CaseName:   name,
			Volume:     text[idx[4]:idx[5]],
			Reporter:   canonical,
			Page:       text[idx[8]:idx[9]],
			Confidence: patternBase,
		}
		if name != "" {
			span.Confidence += nameBonus
		}
		spans = append(spans, span)
	}
	return spans
}

// captionName cleans the caption captured ahead of a citation tail.
// The caption regex can reach back across a sentence boundary when the
// prior sentence ends in a capitalized word, so the candidate is cut
// at its last boundary and must still hold the expected shape
// afterwards. When it does not, the name is dropped and the span
// shrinks to the citation proper.
func captionName(text string, idx []int, valid *regexp.Regexp) (string, int) {
	raw := text[idx[2]:idx[3]]
	trimmed := trimAfterSentence(raw)
	name := cleanCaseName(trimmed)
	if name == "" || !valid.MatchString(name) {
		return "", idx[4]
	}
	return name, idx[2] + len(raw) - len(trimmed)
}
