package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/store"
)

// Processor runs the document pipeline. Implemented by
// pipeline.Pipeline; faked in tests. onStep is called as each stage
// finishes and may be nil.
type Processor interface {
	Process(ctx context.Context, text string, onStep func(model.JobStep)) (*model.Result, error)
}

// Submission is the answer to a document submission: the full result
// when the document ran inline, or the id of a queued background job.
type Submission struct {
	Async  bool
	Result *model.Result
	JobID  string
}

// Coordinator decides inline versus background execution and runs the
// background side: a FIFO queue, a fixed set of workers, and a
// watchdog that fails jobs stuck past the processing limit. Small
// documents never touch the queue or the store.
type Coordinator struct {
	processor Processor
	store     store.Store
	queue     *Queue
	cfg       model.JobsConfig
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator creates a coordinator. Start must be called before
// background submissions are consumed.
func NewCoordinator(processor Processor, st store.Store, cfg model.JobsConfig, logger *slog.Logger) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.AsyncThresholdBytes <= 0 {
		cfg.AsyncThresholdBytes = 50_000
	}
	return &Coordinator{
		processor: processor,
		store:     st,
		queue:     NewQueue(cfg.QueueSize),
		cfg:       cfg,
		logger:    logger,
	}
}

// Start launches the background workers and the watchdog
func (c *Coordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go func(id int) {
			defer c.wg.Done()
			c.work(ctx, id)
		}(i)
	}

	if c.cfg.ReapInterval > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.watch(ctx)
		}()
	}
}

// Shutdown stops the workers. Jobs mid-stage finish their stage and
// then observe the cancellation.
func (c *Coordinator) Shutdown() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Submit routes a document: inline when it is small, queued when it
// crosses the async threshold or the caller forces it. The inline
// path returns the full result; the async path returns the job id to
// poll.
func (c *Coordinator) Submit(ctx context.Context, text string, forceAsync bool) (*Submission, error) {
	if !forceAsync && len(text) <= c.cfg.AsyncThresholdBytes {
		result, err := c.processor.Process(ctx, text, nil)
		if err != nil {
			return nil, fmt.Errorf("process document: %w", err)
		}
		return &Submission{Result: result}, nil
	}

	j := model.NewJob(uuid.NewString())
	if err := c.store.Put(j); err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}

	if err := c.queue.Enqueue(Task{JobID: j.ID, Text: text}); err != nil {
		// Never leave a record nothing will ever run
		_ = c.store.Delete(j.ID)
		return nil, err
	}

	c.logger.Info("job queued", "job_id", j.ID, "bytes", len(text))
	return &Submission{Async: true, JobID: j.ID}, nil
}

// Job returns a snapshot of a job record for progress and result polls
func (c *Coordinator) Job(id string) (*model.ProcessingJob, error) {
	return c.store.Get(id)
}

// QueueLen reports the number of tasks waiting for a worker
func (c *Coordinator) QueueLen() int {
	return c.queue.Len()
}
