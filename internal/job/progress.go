package job

import (
	"time"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/store"
)

// stepPercent is the progress value persisted when a stage finishes.
// The tail between cluster and 100 covers result assembly.
var stepPercent = map[model.JobStep]int{
	model.StepInit:         5,
	model.StepExtract:      25,
	model.StepAnalyze:      40,
	model.StepExtractNames: 55,
	model.StepVerify:       85,
	model.StepCluster:      95,
}

// Progress owns all writes to one job's record. The pipeline reports
// stage boundaries; Progress turns them into persisted state for
// pollers. Percent never decreases and a terminal job is never
// written again, so concurrent pollers can only observe the job
// moving forward.
type Progress struct {
	store store.Store
	job   *model.ProcessingJob
}

// NewProgress wraps a job for stage-by-stage persistence
func NewProgress(st store.Store, job *model.ProcessingJob) *Progress {
	return &Progress{store: st, job: job}
}

// Start marks the job running
func (p *Progress) Start() error {
	if p.job.Status.Terminal() {
		return nil
	}
	now := time.Now().UTC()
	p.job.Status = model.StatusRunning
	p.job.StartedAt = &now
	p.job.UpdatedAt = now
	return p.store.Put(p.job)
}

// Step records that a stage finished and persists the new percent
func (p *Progress) Step(step model.JobStep) error {
	if p.job.Status.Terminal() {
		return nil
	}
	p.job.CurrentStep = step
	if pct, ok := stepPercent[step]; ok && pct > p.job.Percent {
		p.job.Percent = pct
	}
	p.job.UpdatedAt = time.Now().UTC()
	return p.store.Put(p.job)
}

// Complete stores the result and closes the job out
func (p *Progress) Complete(result *model.Result) error {
	if p.job.Status.Terminal() {
		return nil
	}
	now := time.Now().UTC()
	p.job.Status = model.StatusCompleted
	p.job.Percent = 100
	p.job.Result = result
	p.job.FinishedAt = &now
	p.job.UpdatedAt = now
	return p.store.Put(p.job)
}

// Fail closes the job out with an error message. Percent keeps the
// value of the last finished stage.
func (p *Progress) Fail(msg string) error {
	if p.job.Status.Terminal() {
		return nil
	}
	now := time.Now().UTC()
	p.job.Status = model.StatusFailed
	p.job.Message = msg
	p.job.FinishedAt = &now
	p.job.UpdatedAt = now
	return p.store.Put(p.job)
}
