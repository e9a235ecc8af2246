package extract

import (
	"regexp"
	"strings"

	"github.com/pbechard/citecheck/internal/model"
)

// Resolver recovers case names and decision years for citations whose
// extraction strategy carried no surrounding context. It only ever
// looks at a bounded window around each span, never the whole
// document, so an unrelated citation's caption cannot bleed over.
type Resolver struct {
	nameWindow int
	yearWindow int
}

func NewResolver(cfg model.ExtractConfig) *Resolver {
	r := &Resolver{nameWindow: cfg.NameWindow, yearWindow: cfg.YearWindow}
	if r.nameWindow <= 0 {
		r.nameWindow = 200
	}
	if r.yearWindow <= 0 {
		r.yearWindow = 80
	}
	return r
}

// nameStrategy is one way of reading a case name out of the window
// preceding a citation. Strategies run in decreasing specificity; the
// first one that yields a punctuation-clean, shape-valid name wins.
type nameStrategy struct {
	re    *regexp.Regexp
	valid *regexp.Regexp // candidate must still have this shape after cleanup
	bonus float64
}

var nameStrategies = []nameStrategy{
	{
		// Full adversarial caption ending right before the span.
		re:    regexp.MustCompile(`(` + party + vsSep + party + `)[\s,]*$`),
		valid: validCaseName,
		bonus: bonusFullName,
	},
	{
		// In re / Matter of captions.
		re:    regexp.MustCompile(`(` + inReLead + `\s+` + party + `)[\s,]*$`),
		valid: validInReName,
		bonus: bonusInReName,
	},
	{
		// Trailing phrase of capitalized words. Periods are excluded
		// here so the phrase cannot straddle a sentence boundary.
		re:    regexp.MustCompile(`([A-Z][A-Za-z'\-]*(?:\s+(?:of|the|[A-Z][A-Za-z'\-]*))*)[\s,]*$`),
		valid: regexp.MustCompile(`^[A-Z][A-Za-z'\-]*(?:\s+(?:of|the|[A-Z][A-Za-z'\-]*))*$`),
		bonus: bonusPartialName,
	},
}

// ResolveNames fills ExtractedCaseName for citations that lack one.
// Citations are mutated in place; they are owned by the running job.
func (r *Resolver) ResolveNames(text string, cites []model.Citation) {
	for i := range cites {
		if cites[i].ExtractedCaseName != "" {
			continue
		}
		name, bonus := r.nameBefore(text, cites[i].StartIndex)
		if name == "" {
			continue
		}
		cites[i].ExtractedCaseName = name
		cites[i].Confidence = clamp(cites[i].Confidence + bonus)
	}
}

func (r *Resolver) nameBefore(text string, start int) (string, float64) {
	lo := start - r.nameWindow
	if lo < 0 {
		lo = 0
	}
	window := text[lo:start]

	for _, strat := range nameStrategies {
		m := strat.re.FindStringSubmatch(window)
		if m == nil {
			continue
		}
		name := cleanCaseName(trimAfterSentence(m[1]))
		if name == "" {
			continue
		}
		if !punctuationClean(name) || !strat.valid.MatchString(name) {
			continue
		}
		if tooWeak(name) {
			continue
		}
		return name, strat.bonus
	}
	return "", 0
}

// Citation signals and function words trimmed off candidate names.
var leadingNoise = map[string]bool{
	"see": true, "also": true, "cf.": true, "e.g.": true,
	"accord": true, "but": true, "compare": true, "contra": true,
	"citing": true, "quoting": true, "the": true, "and": true,
	"or": true, "in": true, "at": true, "id.": true,
}

var trailingNoise = map[string]bool{
	"at": true, "id.": true, "supra": true, "note": true,
}

// cleanCaseName normalizes whitespace and strips citation signals and
// stray function words from both ends of a candidate name.
func cleanCaseName(name string) string {
	words := strings.Fields(name)

	for len(words) > 0 {
		w := strings.ToLower(words[0])
		// "In re Smith" keeps its lead; a lone "in" is noise.
		if w == "in" && len(words) > 1 && (words[1] == "re" || strings.ToLower(words[1]) == "the") {
			break
		}
		if !leadingNoise[w] {
			break
		}
		words = words[1:]
	}
	for len(words) > 0 {
		w := strings.ToLower(strings.TrimRight(words[len(words)-1], ","))
		if !trailingNoise[w] {
			break
		}
		words = words[:len(words)-1]
	}

	out := strings.Join(words, " ")
	out = strings.TrimRight(out, ",; ")
	return strings.TrimSpace(out)
}

// trimAfterSentence cuts a candidate at its last internal sentence
// boundary, keeping the tail nearest the citation. A period ends a
// sentence when it follows a word of three or more letters and the
// next word is capitalized. Initials ("R. J. Reynolds"), "U.S.", and
// abbreviations followed by lowercase ("Bd. of Educ.", "Inc. v.")
// survive.
func trimAfterSentence(s string) string {
	cut := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && sentenceEnd(s, i) {
			cut = i
		}
	}
	if cut < 0 {
		return s
	}
	return strings.TrimSpace(s[cut+1:])
}

func sentenceEnd(s string, i int) bool {
	j := i - 1
	n := 0
	for j >= 0 && isLetter(s[j]) {
		j--
		n++
	}
	if n < 3 {
		return false
	}
	k := i + 1
	for k < len(s) && s[k] == ' ' {
		k++
	}
	return k < len(s) && s[k] >= 'A' && s[k] <= 'Z'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// punctuationClean rejects candidates still carrying clause
// punctuation after cleanup.
func punctuationClean(name string) bool {
	return !strings.ContainsAny(name, `;:!?()[]{}"`)
}

// tooWeak rejects trailing-phrase guesses with no substance: a single
// short token is as likely a sentence opener as a party name.
func tooWeak(name string) bool {
	words := strings.Fields(name)
	if len(words) >= 2 {
		return false
	}
	if len(words) == 0 {
		return true
	}
	return len(words[0]) < 5
}

func clamp(f float64) float64 {
	if f > 1 {
		return 1
	}
	return f
}
