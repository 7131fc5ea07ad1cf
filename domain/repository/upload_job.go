package repository

import (
	"context"

	"youtube-uploader/domain/model"
)

// IUploadJob stores upload job status records.
type IUploadJob interface {
	Save(ctx context.Context, job *model.UploadJob) error
	// Get returns model.ErrJobNotFound for unknown or expired jobs.
	Get(ctx context.Context, jobID string) (*model.UploadJob, error)
}

// IUploadEvent announces finished uploads to other systems.
type IUploadEvent interface {
	PublishUploadFinished(ctx context.Context, job *model.UploadJob) error
}

// IProgressBroadcaster fans progress events out to live subscribers.
type IProgressBroadcaster interface {
	BroadcastProgress(evt model.ProgressEvent)
}
