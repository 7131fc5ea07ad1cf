package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"youtube-uploader/domain/model"
	"youtube-uploader/domain/repository"

	"github.com/redis/go-redis/v9"
)

const uploadJobKeyPrefix = "upload_job:"

type UploadJobCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUploadJobCache stores job records in Redis, each expiring ttl after its last save.
func NewUploadJobCache(client *redis.Client, ttl time.Duration) repository.IUploadJob {
	return &UploadJobCache{client: client, ttl: ttl}
}

func uploadJobKey(jobID string) string {
	return uploadJobKeyPrefix + jobID
}

func (c *UploadJobCache) Save(ctx context.Context, job *model.UploadJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode upload job %s: %w", job.ID, err)
	}
	if err := c.client.Set(ctx, uploadJobKey(job.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("save upload job %s: %w", job.ID, err)
	}
	return nil
}

func (c *UploadJobCache) Get(ctx context.Context, jobID string) (*model.UploadJob, error) {
	raw, err := c.client.Get(ctx, uploadJobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrJobNotFound
		}
		return nil, fmt.Errorf("load upload job %s: %w", jobID, err)
	}
	var job model.UploadJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode upload job %s: %w", jobID, err)
	}
	return &job, nil
}
