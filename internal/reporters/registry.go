package reporters

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Class groups reporters by the court system they publish
type Class string

const (
	ClassFederal  Class = "federal"  // U.S., S. Ct., L. Ed., F., F. Supp.
	ClassRegional Class = "regional" // West regional reporters (P., A., N.E., ...)
	ClassState    Class = "state"    // Official state reporters (Wash. 2d, Cal. 4th, ...)
)

// Reporter describes one canonical reporter series. Line identifies
// the reporter ignoring series: "P.2d" and "P.3d" share line "P.", and
// one opinion is only ever published once per line.
type Reporter struct {
	Canonical string
	Line      string
	Class     Class
	Series    int
}

// entry pairs a canonical reporter with the abbreviation variants seen
// in the wild. Variants are matched literally after whitespace
// normalization; keep both the spaced and unspaced spellings.
type entry struct {
	rep      Reporter
	variants []string
}

var reporterTable = []entry{
	// United States Supreme Court
	{Reporter{"U.S.", "U.S.", ClassFederal, 1}, []string{"U.S.", "U. S."}},
	{Reporter{"S. Ct.", "S. Ct.", ClassFederal, 1}, []string{"S. Ct.", "S.Ct."}},
	{Reporter{"L. Ed.", "L. Ed.", ClassFederal, 1}, []string{"L. Ed.", "L.Ed."}},
	{Reporter{"L. Ed. 2d", "L. Ed.", ClassFederal, 2}, []string{"L. Ed. 2d", "L.Ed.2d", "L. Ed.2d"}},

	// Federal courts of appeals
	{Reporter{"F.", "F.", ClassFederal, 1}, []string{"F."}},
	{Reporter{"F.2d", "F.", ClassFederal, 2}, []string{"F.2d", "F. 2d"}},
	{Reporter{"F.3d", "F.", ClassFederal, 3}, []string{"F.3d", "F. 3d"}},
	{Reporter{"F.4th", "F.", ClassFederal, 4}, []string{"F.4th", "F. 4th"}},

	// Federal district courts
	{Reporter{"F. Supp.", "F. Supp.", ClassFederal, 1}, []string{"F. Supp.", "F.Supp."}},
	{Reporter{"F. Supp. 2d", "F. Supp.", ClassFederal, 2}, []string{"F. Supp. 2d", "F.Supp.2d", "F. Supp.2d"}},
	{Reporter{"F. Supp. 3d", "F. Supp.", ClassFederal, 3}, []string{"F. Supp. 3d", "F.Supp.3d", "F. Supp.3d"}},

	// West regional reporters
	{Reporter{"P.", "P.", ClassRegional, 1}, []string{"P."}},
	{Reporter{"P.2d", "P.", ClassRegional, 2}, []string{"P.2d", "P. 2d"}},
	{Reporter{"P.3d", "P.", ClassRegional, 3}, []string{"P.3d", "P. 3d"}},
	{Reporter{"A.", "A.", ClassRegional, 1}, []string{"A."}},
	{Reporter{"A.2d", "A.", ClassRegional, 2}, []string{"A.2d", "A. 2d"}},
	{Reporter{"A.3d", "A.", ClassRegional, 3}, []string{"A.3d", "A. 3d"}},
	{Reporter{"N.E.", "N.E.", ClassRegional, 1}, []string{"N.E."}},
	{Reporter{"N.E.2d", "N.E.", ClassRegional, 2}, []string{"N.E.2d", "N.E. 2d"}},
	{Reporter{"N.E.3d", "N.E.", ClassRegional, 3}, []string{"N.E.3d", "N.E. 3d"}},
	{Reporter{"N.W.", "N.W.", ClassRegional, 1}, []string{"N.W."}},
	{Reporter{"N.W.2d", "N.W.", ClassRegional, 2}, []string{"N.W.2d", "N.W. 2d"}},
	{Reporter{"S.E.", "S.E.", ClassRegional, 1}, []string{"S.E."}},
	{Reporter{"S.E.2d", "S.E.", ClassRegional, 2}, []string{"S.E.2d", "S.E. 2d"}},
	{Reporter{"S.W.", "S.W.", ClassRegional, 1}, []string{"S.W."}},
	{Reporter{"S.W.2d", "S.W.", ClassRegional, 2}, []string{"S.W.2d", "S.W. 2d"}},
	{Reporter{"S.W.3d", "S.W.", ClassRegional, 3}, []string{"S.W.3d", "S.W. 3d"}},
	{Reporter{"So.", "So.", ClassRegional, 1}, []string{"So."}},
	{Reporter{"So. 2d", "So.", ClassRegional, 2}, []string{"So. 2d", "So.2d"}},
	{Reporter{"So. 3d", "So.", ClassRegional, 3}, []string{"So. 3d", "So.3d"}},

	// State reporters, Pacific region
	{Reporter{"Wash.", "Wash.", ClassState, 1}, []string{"Wash.", "Wn."}},
	{Reporter{"Wash. 2d", "Wash.", ClassState, 2}, []string{"Wash. 2d", "Wash.2d", "Wn.2d", "Wn. 2d"}},
	{Reporter{"Wash. App.", "Wash. App.", ClassState, 1}, []string{"Wash. App.", "Wn. App.", "Wn.App."}},
	{Reporter{"Cal.", "Cal.", ClassState, 1}, []string{"Cal."}},
	{Reporter{"Cal. 2d", "Cal.", ClassState, 2}, []string{"Cal. 2d", "Cal.2d"}},
	{Reporter{"Cal. 3d", "Cal.", ClassState, 3}, []string{"Cal. 3d", "Cal.3d"}},
	{Reporter{"Cal. 4th", "Cal.", ClassState, 4}, []string{"Cal. 4th", "Cal.4th"}},
	{Reporter{"Cal. 5th", "Cal.", ClassState, 5}, []string{"Cal. 5th", "Cal.5th"}},
	{Reporter{"Cal. Rptr.", "Cal. Rptr.", ClassState, 1}, []string{"Cal. Rptr.", "Cal.Rptr."}},
	{Reporter{"Cal. Rptr. 2d", "Cal. Rptr.", ClassState, 2}, []string{"Cal. Rptr. 2d", "Cal.Rptr.2d"}},
	{Reporter{"Cal. Rptr. 3d", "Cal. Rptr.", ClassState, 3}, []string{"Cal. Rptr. 3d", "Cal.Rptr.3d"}},
	{Reporter{"Ariz.", "Ariz.", ClassState, 1}, []string{"Ariz."}},
	{Reporter{"Colo.", "Colo.", ClassState, 1}, []string{"Colo."}},
	{Reporter{"Kan.", "Kan.", ClassState, 1}, []string{"Kan."}},
	{Reporter{"Or.", "Or.", ClassState, 1}, []string{"Or."}},
	{Reporter{"Utah", "Utah", ClassState, 1}, []string{"Utah"}},
	{Reporter{"Nev.", "Nev.", ClassState, 1}, []string{"Nev."}},
	{Reporter{"Idaho", "Idaho", ClassState, 1}, []string{"Idaho"}},
	{Reporter{"Mont.", "Mont.", ClassState, 1}, []string{"Mont."}},
	{Reporter{"N.M.", "N.M.", ClassState, 1}, []string{"N.M."}},
	{Reporter{"Okla.", "Okla.", ClassState, 1}, []string{"Okla."}},
	{Reporter{"Wyo.", "Wyo.", ClassState, 1}, []string{"Wyo."}},

	// State reporters, Atlantic region
	{Reporter{"Conn.", "Conn.", ClassState, 1}, []string{"Conn."}},
	{Reporter{"Del.", "Del.", ClassState, 1}, []string{"Del."}},
	{Reporter{"Md.", "Md.", ClassState, 1}, []string{"Md."}},
	{Reporter{"N.H.", "N.H.", ClassState, 1}, []string{"N.H."}},
	{Reporter{"N.J.", "N.J.", ClassState, 1}, []string{"N.J."}},
	{Reporter{"Pa.", "Pa.", ClassState, 1}, []string{"Pa."}},
	{Reporter{"Vt.", "Vt.", ClassState, 1}, []string{"Vt."}},
	{Reporter{"Me.", "Me.", ClassState, 1}, []string{"Me."}},

	// State reporters, North Eastern region
	{Reporter{"Ill.", "Ill.", ClassState, 1}, []string{"Ill."}},
	{Reporter{"Ill. 2d", "Ill.", ClassState, 2}, []string{"Ill. 2d", "Ill.2d"}},
	{Reporter{"Ind.", "Ind.", ClassState, 1}, []string{"Ind."}},
	{Reporter{"Mass.", "Mass.", ClassState, 1}, []string{"Mass."}},
	{Reporter{"Ohio St.", "Ohio St.", ClassState, 1}, []string{"Ohio St."}},
	{Reporter{"Ohio St. 2d", "Ohio St.", ClassState, 2}, []string{"Ohio St. 2d", "Ohio St.2d"}},
	{Reporter{"Ohio St. 3d", "Ohio St.", ClassState, 3}, []string{"Ohio St. 3d", "Ohio St.3d"}},

	// New York
	{Reporter{"N.Y.", "N.Y.", ClassState, 1}, []string{"N.Y."}},
	{Reporter{"N.Y.2d", "N.Y.", ClassState, 2}, []string{"N.Y.2d", "N.Y. 2d"}},
	{Reporter{"N.Y.3d", "N.Y.", ClassState, 3}, []string{"N.Y.3d", "N.Y. 3d"}},
	{Reporter{"N.Y.S.", "N.Y.S.", ClassState, 1}, []string{"N.Y.S."}},
	{Reporter{"N.Y.S.2d", "N.Y.S.", ClassState, 2}, []string{"N.Y.S.2d", "N.Y.S. 2d"}},
	{Reporter{"N.Y.S.3d", "N.Y.S.", ClassState, 3}, []string{"N.Y.S.3d", "N.Y.S. 3d"}},

	// State reporters, North Western region
	{Reporter{"Iowa", "Iowa", ClassState, 1}, []string{"Iowa"}},
	{Reporter{"Mich.", "Mich.", ClassState, 1}, []string{"Mich."}},
	{Reporter{"Minn.", "Minn.", ClassState, 1}, []string{"Minn."}},
	{Reporter{"Neb.", "Neb.", ClassState, 1}, []string{"Neb."}},
	{Reporter{"Wis.", "Wis.", ClassState, 1}, []string{"Wis."}},
	{Reporter{"Wis. 2d", "Wis.", ClassState, 2}, []string{"Wis. 2d", "Wis.2d"}},

	// State reporters, South Eastern region
	{Reporter{"Ga.", "Ga.", ClassState, 1}, []string{"Ga."}},
	{Reporter{"N.C.", "N.C.", ClassState, 1}, []string{"N.C."}},
	{Reporter{"S.C.", "S.C.", ClassState, 1}, []string{"S.C."}},
	{Reporter{"Va.", "Va.", ClassState, 1}, []string{"Va."}},
	{Reporter{"W. Va.", "W. Va.", ClassState, 1}, []string{"W. Va.", "W.Va."}},

	// State reporters, South Western region
	{Reporter{"Ark.", "Ark.", ClassState, 1}, []string{"Ark."}},
	{Reporter{"Ky.", "Ky.", ClassState, 1}, []string{"Ky."}},
	{Reporter{"Mo.", "Mo.", ClassState, 1}, []string{"Mo."}},
	{Reporter{"Tenn.", "Tenn.", ClassState, 1}, []string{"Tenn."}},
	{Reporter{"Tex.", "Tex.", ClassState, 1}, []string{"Tex."}},

	// State reporters, Southern region
	{Reporter{"Ala.", "Ala.", ClassState, 1}, []string{"Ala."}},
	{Reporter{"Fla.", "Fla.", ClassState, 1}, []string{"Fla."}},
	{Reporter{"La.", "La.", ClassState, 1}, []string{"La."}},
	{Reporter{"Miss.", "Miss.", ClassState, 1}, []string{"Miss."}},
}

// parallelLines lists, per reporter line, the other lines that can
// carry a parallel citation of the same opinion. The registry
// symmetrizes this at construction, so each pair only needs one side.
var parallelLines = map[string][]string{
	// Supreme Court opinions appear in all three
	"U.S.":   {"S. Ct.", "L. Ed."},
	"S. Ct.": {"L. Ed."},

	// Pacific
	"P.": {"Wash.", "Wash. App.", "Cal.", "Cal. Rptr.", "Ariz.", "Colo.", "Kan.", "Or.", "Utah", "Nev.", "Idaho", "Mont.", "N.M.", "Okla.", "Wyo."},

	// Atlantic
	"A.": {"Conn.", "Del.", "Md.", "N.H.", "N.J.", "Pa.", "Vt.", "Me."},

	// North Eastern (New York Court of Appeals opinions appear in
	// N.E., N.Y. and N.Y.S.)
	"N.E.": {"Ill.", "Ind.", "Mass.", "Ohio St.", "N.Y.", "N.Y.S."},

	// North Western
	"N.W.": {"Iowa", "Mich.", "Minn.", "Neb.", "Wis."},

	// South Eastern
	"S.E.": {"Ga.", "N.C.", "S.C.", "Va.", "W. Va."},

	// South Western
	"S.W.": {"Ark.", "Ky.", "Mo.", "Tenn.", "Tex."},

	// Southern
	"So.": {"Ala.", "Fla.", "La.", "Miss."},

	// New York official reports parallel West's New York Supplement
	"N.Y.": {"N.Y.S."},

	// California official reports parallel West's California Reporter
	"Cal.": {"Cal. Rptr."},
}

// Registry resolves reporter abbreviations to canonical form and
// answers parallel-compatibility and deep-link questions.
type Registry struct {
	variants   map[string]string   // normalized variant -> canonical
	variantsOf map[string][]string // canonical -> spellings, canonical first
	entries    map[string]Reporter // canonical -> reporter
	parallels  map[string]map[string]bool

	alternation string
}

var spaceRun = regexp.MustCompile(`\s+`)

// NewRegistry builds the registry from the built-in reporter table.
func NewRegistry() *Registry {
	r := &Registry{
		variants:   make(map[string]string),
		variantsOf: make(map[string][]string),
		entries:    make(map[string]Reporter),
		parallels:  make(map[string]map[string]bool),
	}

	var all []string
	for _, ent := range reporterTable {
		r.entries[ent.rep.Canonical] = ent.rep
		for _, v := range ent.variants {
			r.variants[normalizeSpace(v)] = ent.rep.Canonical
			r.variantsOf[ent.rep.Canonical] = append(r.variantsOf[ent.rep.Canonical], v)
			all = append(all, v)
		}
	}

	for line, others := range parallelLines {
		for _, other := range others {
			r.addParallel(line, other)
			r.addParallel(other, line)
		}
	}

	// Longest variants first so the alternation never matches "P."
	// inside "P.3d".
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) > len(all[j])
		}
		return all[i] < all[j]
	})
	escaped := make([]string, len(all))
	for i, v := range all {
		escaped[i] = variantPattern(v)
	}
	r.alternation = strings.Join(escaped, "|")

	return r
}

func (r *Registry) addParallel(a, b string) {
	if r.parallels[a] == nil {
		r.parallels[a] = make(map[string]bool)
	}
	r.parallels[a][b] = true
}

// variantPattern escapes a variant for use in a regexp, with flexible
// whitespace where the variant has spaces.
func variantPattern(v string) string {
	parts := strings.Fields(v)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `\s+`)
}

func normalizeSpace(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Normalize maps a raw reporter abbreviation as matched in text to its
// canonical form. Unknown abbreviations return ok=false and must not
// be emitted as citations.
func (r *Registry) Normalize(raw string) (string, bool) {
	canonical, ok := r.variants[normalizeSpace(raw)]
	return canonical, ok
}

// Lookup returns the reporter record for a canonical abbreviation.
func (r *Registry) Lookup(canonical string) (Reporter, bool) {
	rep, ok := r.entries[canonical]
	return rep, ok
}

// Variants returns every known spelling of a canonical reporter, the
// canonical form first. Nil for unknown reporters.
func (r *Registry) Variants(canonical string) []string {
	return r.variantsOf[canonical]
}

// ClassOf returns the reporter class, or ok=false for unknown input.
func (r *Registry) ClassOf(canonical string) (Class, bool) {
	rep, ok := r.entries[canonical]
	return rep.Class, ok
}

// Compatible reports whether two canonical reporters can carry
// parallel citations of one opinion. Reporters on the same line are
// never compatible: an opinion is published once per line, so two
// same-line citations with different volume/page are different
// opinions by construction.
func (r *Registry) Compatible(a, b string) bool {
	ra, ok := r.entries[a]
	if !ok {
		return false
	}
	rb, ok := r.entries[b]
	if !ok {
		return false
	}
	if ra.Line == rb.Line {
		return false
	}
	return r.parallels[ra.Line][rb.Line]
}

// Alternation returns a regexp fragment matching any known reporter
// variant, longest first. Callers embed it inside their own groups.
func (r *Registry) Alternation() string {
	return r.alternation
}

// DeepLink is one deterministic URL where an opinion with the given
// citation should be published.
type DeepLink struct {
	Source string
	URL    string
}

// DeepLinks returns candidate deep-link URLs for a canonical citation,
// most specific source first. U.S. Reports citations get dedicated
// volume/page templates; everything else goes through the
// CourtListener citation redirector.
func (r *Registry) DeepLinks(canonical, volume, page string) []DeepLink {
	if _, ok := r.entries[canonical]; !ok {
		return nil
	}
	var links []DeepLink
	if canonical == "U.S." {
		links = append(links,
			DeepLink{Source: "justia", URL: "https://supreme.justia.com/cases/federal/us/" + volume + "/" + page + "/"},
			DeepLink{Source: "cornell-lii", URL: "https://www.law.cornell.edu/supremecourt/text/" + volume + "/" + page},
		)
	}
	links = append(links, DeepLink{
		Source: "courtlistener-c",
		URL:    "https://www.courtlistener.com/c/" + url.PathEscape(canonical) + "/" + volume + "/" + page + "/",
	})
	return links
}
