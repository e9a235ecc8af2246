package cluster

import "github.com/pbechard/citecheck/internal/model"

// canonicalFields picks a cluster's display name and date. A verified
// member outranks any extraction; among verified members the most
// confident wins. Fields the verified member lacks fall back to the
// extracted values.
func canonicalFields(cites []model.Citation, members []int) (name, date string) {
	if best := bestVerified(cites, members); best >= 0 {
		name = cites[best].CanonicalName
		date = cites[best].CanonicalDate
	}
	if name == "" {
		name = pickField(cites, members, func(c *model.Citation) string { return c.ExtractedCaseName })
	}
	if date == "" {
		date = pickField(cites, members, func(c *model.Citation) string { return c.ExtractedDate })
	}
	return name, date
}

func bestVerified(cites []model.Citation, members []int) int {
	best := -1
	for _, m := range members {
		if !cites[m].Verified {
			continue
		}
		if best < 0 || cites[m].Confidence > cites[best].Confidence {
			best = m
		}
	}
	return best
}

// pickField chooses among the members' extracted values: the value
// backed by the highest confidence wins, and a confidence tie goes to
// the value more members agree on.
func pickField(cites []model.Citation, members []int, get func(*model.Citation) string) string {
	type stat struct {
		conf  float64
		votes int
	}
	stats := make(map[string]*stat)
	var order []string

	for _, m := range members {
		v := get(&cites[m])
		if v == "" {
			continue
		}
		s, ok := stats[v]
		if !ok {
			s = &stat{}
			stats[v] = s
			order = append(order, v)
		}
		s.votes++
		if cites[m].Confidence > s.conf {
			s.conf = cites[m].Confidence
		}
	}

	best := ""
	for _, v := range order {
		if best == "" {
			best = v
			continue
		}
		s, b := stats[v], stats[best]
		if s.conf > b.conf || (s.conf == b.conf && s.votes > b.votes) {
			best = v
		}
	}
	return best
}
