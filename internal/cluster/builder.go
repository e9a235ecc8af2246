package cluster

import (
	"strconv"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
)

// Builder groups extracted citations into parallel-citation clusters.
// A pair joins only when every gate agrees: the two sit close enough
// together or share a comma-delimited run, their reporters belong to
// compatible publication lines, and neither their names nor their
// years disagree. Doubt keeps citations apart; a wrong split is
// recoverable downstream, a wrong merge is not.
type Builder struct {
	registry *reporters.Registry
	cfg      model.ClusterConfig
}

func NewBuilder(reg *reporters.Registry, cfg model.ClusterConfig) *Builder {
	if cfg.ProximityChars <= 0 {
		cfg.ProximityChars = 250
	}
	if cfg.CommaRunGap <= 0 {
		cfg.CommaRunGap = 25
	}
	if cfg.NameSimilarity <= 0 {
		cfg.NameSimilarity = 0.82
	}
	if cfg.YearTolerance < 0 {
		cfg.YearTolerance = 1
	}
	return &Builder{registry: reg, cfg: cfg}
}

// Build assigns every citation to exactly one cluster, possibly a
// singleton. Citations must be in document order with valid spans into
// text. Cluster membership is by index into cites; cluster IDs count
// up in document order of each cluster's first member.
func (b *Builder) Build(text string, cites []model.Citation) []model.Cluster {
	n := len(cites)
	if n == 0 {
		return []model.Cluster{}
	}

	runs := b.commaRuns(text, cites)
	uf := newUnionFind(n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			gap := cites[j].StartIndex - cites[i].EndIndex
			if gap > b.cfg.ProximityChars && runs[i] != runs[j] {
				// Citations are ordered, so every later j is
				// farther still.
				break
			}
			if b.parallel(&cites[i], &cites[j], runs[i] == runs[j]) {
				uf.union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if _, seen := byRoot[root]; !seen {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	clusters := make([]model.Cluster, 0, len(roots))
	for id, root := range roots {
		members := byRoot[root]
		name, date := canonicalFields(cites, members)
		clusters = append(clusters, model.Cluster{
			ID:            id + 1,
			Members:       members,
			CanonicalName: name,
			CanonicalDate: date,
			Size:          len(members),
		})
	}
	return clusters
}

// parallel applies the merge gates to one candidate pair. a precedes c
// in the document; sameRun means they share a comma-delimited run.
func (b *Builder) parallel(a, c *model.Citation, sameRun bool) bool {
	if gap := c.StartIndex - a.EndIndex; gap > b.cfg.ProximityChars && !sameRun {
		return false
	}
	if !b.registry.Compatible(a.Reporter, c.Reporter) {
		return false
	}
	// Names are compared as extracted: a verified canonical name would
	// spell out abbreviations the document kept short and sink the
	// similarity of a genuine pair.
	if na, nc := a.ExtractedCaseName, c.ExtractedCaseName; na != "" && nc != "" {
		if NameSimilarity(na, nc) < b.cfg.NameSimilarity {
			return false
		}
	}
	if ya, yc := bestYear(a), bestYear(c); ya != 0 && yc != 0 {
		if diff := ya - yc; diff > b.cfg.YearTolerance || -diff > b.cfg.YearTolerance {
			return false
		}
	}
	return true
}

// commaRuns labels each citation with a run id. Consecutive citations
// separated by nothing but commas and whitespace, within the
// configured gap, share a run.
func (b *Builder) commaRuns(text string, cites []model.Citation) []int {
	runs := make([]int, len(cites))
	for i := 1; i < len(cites); i++ {
		runs[i] = runs[i-1]
		gap := text[cites[i-1].EndIndex:cites[i].StartIndex]
		if len(gap) > b.cfg.CommaRunGap || !commaGap(gap) {
			runs[i]++
		}
	}
	return runs
}

func commaGap(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', ',':
		default:
			return false
		}
	}
	return true
}

// bestYear returns the decision year, preferring the verified
// canonical date. Zero means unknown.
func bestYear(c *model.Citation) int {
	if c.Verified && c.CanonicalDate != "" {
		if y := yearOf(c.CanonicalDate); y != 0 {
			return y
		}
	}
	return yearOf(c.ExtractedDate)
}

// yearOf reads the leading year out of "1954" or "1954-05-17" style
// dates.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// unionFind is a plain disjoint-set over citation indices. The root of
// a set is always its smallest index, which keeps cluster ordering
// deterministic.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	switch {
	case ra == rb:
	case ra < rb:
		u.parent[rb] = ra
	default:
		u.parent[ra] = rb
	}
}
