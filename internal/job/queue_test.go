package job

import (
	"context"
	"errors"
	"testing"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(4)

	for _, id := range []string{"job-1", "job-2", "job-3"} {
		if err := q.Enqueue(Task{JobID: id}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	for _, want := range []string{"job-1", "job-2", "job-3"} {
		task, ok := q.Dequeue(context.Background())
		if !ok {
			t.Fatal("Expected a task")
		}
		if task.JobID != want {
			t.Errorf("Expected %s, got %s", want, task.JobID)
		}
	}
}

func TestQueue_Full(t *testing.T) {
	q := NewQueue(2)

	if err := q.Enqueue(Task{JobID: "job-1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := q.Enqueue(Task{JobID: "job-2"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := q.Enqueue(Task{JobID: "job-3"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}
	if q.Len() != 2 {
		t.Errorf("Expected 2 pending tasks, got %d", q.Len())
	}
}

func TestQueue_DequeueCanceled(t *testing.T) {
	q := NewQueue(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := q.Dequeue(ctx); ok {
		t.Error("Expected no task from a canceled dequeue")
	}
}
