package extract

import (
	"fmt"
	"regexp"

	"github.com/pbechard/citecheck/internal/reporters"
)

// grammarMatcher tokenizes bare volume/reporter/page triples driven by
// the reporter registry's known abbreviations. It carries no case-name
// or year context; the resolver supplies those afterwards. Because the
// reporter token is mandatory, a bare number standing alone can never
// come out of this matcher.
type grammarMatcher struct {
	registry *reporters.Registry
	cite     *regexp.Regexp
}

func newGrammarMatcher(reg *reporters.Registry) *grammarMatcher {
	return &grammarMatcher{
		registry: reg,
		cite:     regexp.MustCompile(fmt.Sprintf(`\b(\d{1,4})\s+(%s)\s+(\d{1,5})\b`, reg.Alternation())),
	}
}

func (m *grammarMatcher) scan(text string) []Span {
	var spans []Span
	for _, idx := range m.cite.FindAllStringSubmatchIndex(text, -1) {
		canonical, ok := m.registry.Normalize(text[idx[4]:idx[5]])
		if !ok {
			continue
		}
		spans = append(spans, Span{
			Start:      idx[0],
			End:        idx[1],
			Strategy:   StrategyGrammar,
			Volume:     text[idx[2]:idx[3]],
			Reporter:   canonical,
			Page:       text[idx[6]:idx[7]],
			Confidence: grammarBase,
		})
	}
	return spans
}
