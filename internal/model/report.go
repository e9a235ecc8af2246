package model

import "time"

// Result is the complete output of one document run: every citation
// found in the text, in document order, plus the cluster partition
// over them. Unverified citations appear as normal records with
// verified=false; nothing is dropped.
type Result struct {
	Citations []Citation `json:"citations"`
	Clusters  []Cluster  `json:"clusters"`

	Stats       Stats     `json:"stats"`
	ProcessedAt time.Time `json:"processed_at"`

	Notes []Note      `json:"notes,omitempty"` // Coverage facts worth flagging to the reader
	LLM   *LLMSummary `json:"llm,omitempty"`   // Optional narrative summary (never affects verification)
}

// Note severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Note flags a coverage fact about the run. Notes describe what the
// run did or could not do; they never judge the document's argument.
type Note struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Stats summarizes a run for quick inspection
type Stats struct {
	TextBytes     int   `json:"text_bytes"`
	CitationCount int   `json:"citation_count"`
	ClusterCount  int   `json:"cluster_count"`
	VerifiedCount int   `json:"verified_count"`
	ElapsedMS     int64 `json:"elapsed_ms"`
}

// ClusterFor returns the cluster containing the given citation index,
// or nil. Membership is looked up here rather than stored on the
// citation, so records stay cycle-free.
func (r *Result) ClusterFor(idx int) *Cluster {
	for i := range r.Clusters {
		if r.Clusters[i].Contains(idx) {
			return &r.Clusters[i]
		}
	}
	return nil
}

// CountVerified counts citations confirmed by an external source.
func (r *Result) CountVerified() int {
	n := 0
	for i := range r.Citations {
		if r.Citations[i].Verified {
			n++
		}
	}
	return n
}

// LLMSummary contains the optional LLM-generated run summary.
// CRITICAL: this never affects verification outcomes and is clearly
// separated from canonical data.
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"` // Markdown summary
	Warnings  []string `json:"warnings,omitempty"`   // e.g. citations of URLs outside the allowlist
}
