package store

import (
	"errors"

	"github.com/pbechard/citecheck/internal/model"
)

// ErrNotFound is returned when no job exists under the requested id,
// including jobs whose records have expired.
var ErrNotFound = errors.New("job not found")

// Store persists job records keyed by job id. Records carry a TTL so
// finished jobs age out on their own. The store is the only state
// shared between the submitting handler, the executing worker and the
// progress pollers, so every implementation must be safe for
// concurrent use and must hand out snapshots, never live pointers.
type Store interface {
	// Put writes a job record, replacing any previous one. Each call
	// restarts the record's TTL.
	Put(job *model.ProcessingJob) error

	// Get returns a snapshot of the job, or ErrNotFound.
	Get(id string) (*model.ProcessingJob, error)

	// List returns snapshots of every live job record.
	List() ([]*model.ProcessingJob, error)

	// Delete removes a job record. Deleting a missing id is not an error.
	Delete(id string) error

	// Close releases any resources held by the store.
	Close() error
}
