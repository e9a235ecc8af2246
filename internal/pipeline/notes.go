package pipeline

import (
	"fmt"

	"github.com/pbechard/citecheck/internal/model"
)

// deriveNotes inspects a finished result and flags coverage facts the
// report should surface. Only noteworthy facts produce notes; a fully
// verified run produces none. Unverified is not a judgment: a source
// outage and a nonexistent citation end in the same state, and the
// notes say so rather than guess.
func deriveNotes(result *model.Result, verifyEnabled bool) []model.Note {
	var notes []model.Note
	total := len(result.Citations)

	if !verifyEnabled {
		if total > 0 {
			notes = append(notes, model.Note{
				Severity: model.SeverityInfo,
				Message:  "Verification disabled; citations were not checked against any source",
			})
		}
		return notes
	}

	if total == 0 {
		return nil
	}

	unverified := total - result.Stats.VerifiedCount
	switch {
	case unverified == total:
		notes = append(notes, model.Note{
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("0 of %d citations verified; unverified covers both source availability and nonexistence", total),
		})
	case unverified > 0:
		notes = append(notes, model.Note{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("%d of %d citations unverified after all sources", unverified, total),
		})
	}

	if n := namelessUnverified(result); n > 0 {
		notes = append(notes, model.Note{
			Severity: model.SeverityInfo,
			Message:  fmt.Sprintf("%d unverified citations had no recoverable case name; sources that match on the name were skipped for them", n),
		})
	}

	if n := coveredByCluster(result); n > 0 {
		notes = append(notes, model.Note{
			Severity: model.SeverityInfo,
			Message:  fmt.Sprintf("%d unverified citations share a cluster with a verified parallel citation", n),
		})
	}

	return notes
}

// namelessUnverified counts unverified citations extraction could not
// name. Deep links and web search both require an expected name, so
// these citations only ever saw the lookup tier.
func namelessUnverified(result *model.Result) int {
	n := 0
	for i := range result.Citations {
		c := &result.Citations[i]
		if !c.Verified && c.ExtractedCaseName == "" {
			n++
		}
	}
	return n
}

// coveredByCluster counts unverified citations whose cluster holds a
// verified member, meaning canonical data for the opinion exists even
// though this particular reporter's entry was not confirmed.
func coveredByCluster(result *model.Result) int {
	n := 0
	for i := range result.Citations {
		if result.Citations[i].Verified {
			continue
		}
		cl := result.ClusterFor(i)
		if cl == nil {
			continue
		}
		for _, idx := range cl.Members {
			if idx >= 0 && idx < len(result.Citations) && result.Citations[idx].Verified {
				n++
				break
			}
		}
	}
	return n
}
