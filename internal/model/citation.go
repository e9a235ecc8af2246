package model

import "fmt"

// Citation represents one citation span extracted from document text.
// Offsets index into the source text; the span [StartIndex, EndIndex)
// covers exactly the matched text. Extraction fields are immutable once
// extraction completes; verification fields are set once, by the
// verification orchestrator, and never overwritten.
type Citation struct {
	Text     string `json:"citation"`           // Raw matched text
	Volume   string `json:"volume,omitempty"`   // Reporter volume number
	Reporter string `json:"reporter,omitempty"` // Canonical reporter abbreviation
	Page     string `json:"page,omitempty"`     // First page of the opinion
	Pinpoint string `json:"pinpoint,omitempty"` // Pinpoint page(s), if cited

	StartIndex int `json:"start_index"` // Span start offset (inclusive)
	EndIndex   int `json:"end_index"`   // Span end offset (exclusive)

	ExtractedCaseName string  `json:"extracted_case_name,omitempty"` // Nearest "Party v. Party" style name
	ExtractedDate     string  `json:"extracted_date,omitempty"`      // 4-digit decision year, as written
	Confidence        float64 `json:"confidence"`                    // Extraction confidence (0-1)

	Verified      bool   `json:"verified"`                 // True once an external source confirmed the citation
	Source        string `json:"source,omitempty"`         // Name of the source that verified it
	CanonicalName string `json:"canonical_name,omitempty"` // Case name per the verifying source
	CanonicalDate string `json:"canonical_date,omitempty"` // Decision date per the verifying source
	CanonicalURL  string `json:"canonical_url,omitempty"`  // URL of the opinion at the verifying source
}

// Normalized returns the citation in "volume reporter page" form,
// e.g. "347 U.S. 483", suitable for lookup queries and cache keys.
func (c *Citation) Normalized() string {
	return fmt.Sprintf("%s %s %s", c.Volume, c.Reporter, c.Page)
}

// AttemptOutcome classifies the result of one verification attempt
type AttemptOutcome string

const (
	OutcomeMatch   AttemptOutcome = "match"    // Source returned an acceptable canonical record
	OutcomeNoMatch AttemptOutcome = "no_match" // Source answered but had no acceptable record
	OutcomeError   AttemptOutcome = "error"    // Source was unreachable or returned garbage
)

// VerificationAttempt is the transient record produced by one tier of
// the verification chain. Only an accepted attempt survives the run,
// copied onto the Citation's canonical fields.
type VerificationAttempt struct {
	Source     string         `json:"source"`
	Outcome    AttemptOutcome `json:"outcome"`
	Confidence float64        `json:"confidence"` // Tier weight x validation signal

	CanonicalName string `json:"canonical_name,omitempty"`
	CanonicalDate string `json:"canonical_date,omitempty"`
	CanonicalURL  string `json:"canonical_url,omitempty"`

	Error string `json:"error,omitempty"`
}
