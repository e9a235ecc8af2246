package job

import (
	"context"
	"errors"
)

// ErrQueueFull is returned when the pending-job queue cannot take
// another task. Submitters surface it instead of blocking.
var ErrQueueFull = errors.New("job queue full")

// Task is one unit of background work: the job to execute and the
// document text it runs on. The text rides on the task rather than the
// job record, so progress polls stay small.
type Task struct {
	JobID string
	Text  string
}

// Queue is the FIFO handoff between submission and the background
// workers. Tasks come out in the order they went in.
type Queue struct {
	tasks chan Task
}

// NewQueue creates a queue holding at most capacity pending tasks
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{tasks: make(chan Task, capacity)}
}

// Enqueue adds a task without blocking. A full queue rejects the task
// so submission can answer immediately.
func (q *Queue) Enqueue(task Task) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a task is available or the context ends.
// Returns false only when the context ended.
func (q *Queue) Dequeue(ctx context.Context) (Task, bool) {
	select {
	case task := <-q.tasks:
		return task, true
	case <-ctx.Done():
		return Task{}, false
	}
}

// Len reports the number of pending tasks
func (q *Queue) Len() int {
	return len(q.tasks)
}
