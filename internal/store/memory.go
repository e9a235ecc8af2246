package store

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pbechard/citecheck/internal/model"
)

// MemoryStore keeps job records in memory with expiry. The default for
// single-process deployments; records do not survive a restart.
type MemoryStore struct {
	jobs *gocache.Cache
	ttl  time.Duration
}

// NewMemoryStore creates a memory store whose records expire ttl after
// their last Put.
func NewMemoryStore(ttl time.Duration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs: gocache.New(ttl, cleanupInterval),
		ttl:  ttl,
	}
}

// Put writes a snapshot of the job and restarts its TTL
func (s *MemoryStore) Put(job *model.ProcessingJob) error {
	s.jobs.Set(job.ID, job.Clone(), s.ttl)
	return nil
}

// Get returns a snapshot of the job, or ErrNotFound
func (s *MemoryStore) Get(id string) (*model.ProcessingJob, error) {
	val, found := s.jobs.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	return val.(*model.ProcessingJob).Clone(), nil
}

// List returns snapshots of every live job record
func (s *MemoryStore) List() ([]*model.ProcessingJob, error) {
	items := s.jobs.Items()
	jobs := make([]*model.ProcessingJob, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, item.Object.(*model.ProcessingJob).Clone())
	}
	return jobs, nil
}

// Delete removes a job record
func (s *MemoryStore) Delete(id string) error {
	s.jobs.Delete(id)
	return nil
}

// Close releases the store. A no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
