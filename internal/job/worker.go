package job

import (
	"context"
	"fmt"
	"time"

	"github.com/pbechard/citecheck/internal/model"
)

// work is one background worker's loop. Each task is executed by
// exactly one worker; the loop ends when the coordinator's context
// does.
func (c *Coordinator) work(ctx context.Context, id int) {
	for {
		task, ok := c.queue.Dequeue(ctx)
		if !ok {
			return
		}
		c.run(ctx, id, task)
	}
}

// run executes one job end to end. Whatever happens inside the
// pipeline, the job record ends up terminal: errors and panics both
// land in status=failed with a message, never a job stuck running.
func (c *Coordinator) run(ctx context.Context, workerID int, task Task) {
	j, err := c.store.Get(task.JobID)
	if err != nil {
		c.logger.Warn("dropping task for missing job", "job_id", task.JobID, "error", err)
		return
	}

	progress := NewProgress(c.store, j)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("job panicked", "job_id", task.JobID, "worker", workerID, "panic", r)
			_ = progress.Fail(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := progress.Start(); err != nil {
		c.logger.Warn("persist job start", "job_id", task.JobID, "error", err)
	}
	c.logger.Info("job started", "job_id", task.JobID, "worker", workerID)

	jobCtx := ctx
	if c.cfg.MaxProcessing > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, c.cfg.MaxProcessing)
		defer cancel()
	}

	result, err := c.processor.Process(jobCtx, task.Text, func(step model.JobStep) {
		if perr := progress.Step(step); perr != nil {
			c.logger.Warn("persist progress", "job_id", task.JobID, "step", string(step), "error", perr)
		}
	})
	if err != nil {
		c.logger.Warn("job failed", "job_id", task.JobID, "error", err)
		_ = progress.Fail(err.Error())
		return
	}

	if err := progress.Complete(result); err != nil {
		c.logger.Warn("persist job result", "job_id", task.JobID, "error", err)
		return
	}
	c.logger.Info("job completed", "job_id", task.JobID,
		"citations", result.Stats.CitationCount, "verified", result.Stats.VerifiedCount)
}

// watch sweeps the store for jobs stuck past the processing limit.
// Covers workers that died without closing their job out, including
// jobs from a previous process found in a persistent store.
func (c *Coordinator) watch(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reapStuck()
		}
	}
}

// reapStuck fails every non-terminal job whose record has not moved
// within the processing limit.
func (c *Coordinator) reapStuck() {
	jobs, err := c.store.List()
	if err != nil {
		c.logger.Warn("watchdog list jobs", "error", err)
		return
	}

	cutoff := time.Now().UTC().Add(-c.cfg.MaxProcessing)
	for _, j := range jobs {
		if j.Status.Terminal() || j.UpdatedAt.After(cutoff) {
			continue
		}
		c.logger.Warn("reaping stuck job", "job_id", j.ID, "status", string(j.Status), "updated_at", j.UpdatedAt)
		if err := NewProgress(c.store, j).Fail("job exceeded maximum processing time"); err != nil {
			c.logger.Warn("persist reaped job", "job_id", j.ID, "error", err)
		}
	}
}
