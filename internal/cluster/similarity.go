package cluster

import "strings"

// Tokens that carry no identity when comparing case names. Connectives
// and procedural lead-ins appear in almost every caption; keeping them
// would inflate similarity between unrelated cases.
var nameStopTokens = map[string]bool{
	"v": true, "vs": true, "the": true, "of": true, "a": true,
	"an": true, "in": true, "re": true, "ex": true, "parte": true,
	"matter": true, "et": true, "al": true,
}

// nameTokens lowercases a case name and reduces it to its
// identity-bearing tokens. Punctuation is stripped so "Bd." and "Bd"
// compare equal.
func nameTokens(name string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(name)) {
		tok := strings.Map(keepAlnum, f)
		if tok == "" || nameStopTokens[tok] {
			continue
		}
		set[tok] = true
	}
	return set
}

func keepAlnum(r rune) rune {
	if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
		return r
	}
	return -1
}

// NameSimilarity returns the token-set Jaccard similarity of two case
// names, in [0,1]. A name with no identity-bearing tokens matches
// nothing.
func NameSimilarity(a, b string) float64 {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if tb[tok] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}
