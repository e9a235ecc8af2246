package verify

import (
	"context"

	"github.com/pbechard/citecheck/internal/model"
)

// Tier weights. Acceptance multiplies a weight by the source's
// validation signal; the product must clear the configured threshold.
const (
	WeightLookup    = 1.0
	WeightDeepLink  = 0.85
	WeightWebSearch = 0.70
)

// Target is one citation to confirm, plus what the chain already knows
// about it before any source is consulted.
type Target struct {
	Citation *model.Citation
	// ExpectedName is the extracted case name, possibly empty. Sources
	// that validate by page content cannot accept a target without one.
	ExpectedName string
}

// Source is one verification tier. Attempt reports how the source
// answered; a no_match answer is data, not an error. The error return
// is reserved for transport failures that survived the source's own
// retries.
type Source interface {
	Name() string
	Weight() float64
	Attempt(ctx context.Context, target Target) (*model.VerificationAttempt, error)
}

// State tracks one citation through the verification chain.
type State string

const (
	StateUnverified State = "unverified"
	StatePending    State = "pending"
	StateVerified   State = "verified"
	// StateExhausted means every tier answered and none was accepted.
	// A legitimate terminal state: the citation stays unverified.
	StateExhausted State = "exhausted"
)

// ChainResult is the outcome of one citation's walk through the chain.
type ChainResult struct {
	State    State
	Accepted *model.VerificationAttempt  // set only when State is verified
	Attempts []model.VerificationAttempt // one per tier consulted, in order
}
