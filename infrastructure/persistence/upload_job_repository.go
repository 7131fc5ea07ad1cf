package persistence

import (
	"context"
	"sync"
	"time"

	"youtube-uploader/domain/model"
	"youtube-uploader/domain/repository"
)

type uploadJobEntry struct {
	job       model.UploadJob
	expiresAt time.Time
}

// UploadJobRepository keeps job records in process memory. It is used when
// Redis is not configured, so records do not survive a restart.
type UploadJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]uploadJobEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewUploadJobRepository(ttl time.Duration) repository.IUploadJob {
	return &UploadJobRepository{
		jobs: make(map[string]uploadJobEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (r *UploadJobRepository) Save(_ context.Context, job *model.UploadJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeExpired()
	entry := uploadJobEntry{job: *job}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.jobs[job.ID] = entry
	return nil
}

func (r *UploadJobRepository) Get(_ context.Context, jobID string) (*model.UploadJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.jobs[jobID]
	if !ok || r.expired(entry) {
		return nil, model.ErrJobNotFound
	}
	job := entry.job
	return &job, nil
}

func (r *UploadJobRepository) expired(e uploadJobEntry) bool {
	return !e.expiresAt.IsZero() && r.now().After(e.expiresAt)
}

// purgeExpired must be called with mu held for writing.
func (r *UploadJobRepository) purgeExpired() {
	for id, e := range r.jobs {
		if r.expired(e) {
			delete(r.jobs, id)
		}
	}
}
