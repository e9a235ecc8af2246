package model

import "time"

// JobStatus is the lifecycle state of a processing job
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final. A terminal job is
// never transitioned again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobStep names one stage of the document pipeline, in execution order
type JobStep string

const (
	StepInit         JobStep = "init"
	StepExtract      JobStep = "extract"
	StepAnalyze      JobStep = "analyze"
	StepExtractNames JobStep = "extract_names"
	StepVerify       JobStep = "verify"
	StepCluster      JobStep = "cluster"
)

// ProcessingJob tracks one document run through the pipeline. Only the
// worker executing the job mutates it; pollers read snapshots from the
// job store. Percent never decreases, and status transitions are
// monotonic: queued -> running -> completed|failed.
type ProcessingJob struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	CurrentStep JobStep   `json:"current_step,omitempty"`
	Percent     int       `json:"percent"`
	Message     string    `json:"message,omitempty"` // Failure message or progress note

	Result *Result `json:"result,omitempty"` // Set once, on completion

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewJob returns a freshly queued job with the given id.
func NewJob(id string) *ProcessingJob {
	now := time.Now().UTC()
	return &ProcessingJob{
		ID:        id,
		Status:    StatusQueued,
		Percent:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy safe to hand to pollers. The Result pointer is
// shared: results are written once at completion and read-only after.
func (j *ProcessingJob) Clone() *ProcessingJob {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
