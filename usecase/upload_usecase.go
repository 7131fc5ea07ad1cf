package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"youtube-uploader/domain/dto"
	"youtube-uploader/domain/model"
	"youtube-uploader/domain/repository"
	"youtube-uploader/infrastructure/logger"
)

// finishGrace bounds recording the outcome once the upload itself is over.
const finishGrace = 15 * time.Second

// IUploadUsecase publishes videos and reports on upload jobs.
type IUploadUsecase interface {
	// UploadVideo validates req and publishes it. Once validation passes the
	// returned job is non-nil even when err is not.
	UploadVideo(ctx context.Context, req *dto.UploadVideoRequest) (*model.UploadJob, error)
	GetJob(ctx context.Context, jobID string) (*model.UploadJob, error)
}

type UploadUsecase struct {
	tokens   repository.ITokenExchanger
	uploader repository.IVideoUploader
	fetcher  repository.IVideoFetcher
	jobs     repository.IUploadJob

	// optional collaborators
	events      []repository.IUploadEvent
	cleaner     repository.ISourceCleaner
	broadcaster repository.IProgressBroadcaster

	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewUploadUsecase wires the upload flow. timeout bounds everything after
// validation; zero means no bound beyond the collaborators' own timeouts.
func NewUploadUsecase(
	tokens repository.ITokenExchanger,
	uploader repository.IVideoUploader,
	fetcher repository.IVideoFetcher,
	jobs repository.IUploadJob,
	timeout time.Duration,
) *UploadUsecase {
	return &UploadUsecase{
		tokens:   tokens,
		uploader: uploader,
		fetcher:  fetcher,
		jobs:     jobs,
		timeout:  timeout,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithEvents adds sinks for upload-finished events (fluent)
func (u *UploadUsecase) WithEvents(events ...repository.IUploadEvent) *UploadUsecase {
	u.events = append(u.events, events...)
	return u
}

// WithSourceCleaner enables deletion of bunny_delete_url after success (fluent)
func (u *UploadUsecase) WithSourceCleaner(cleaner repository.ISourceCleaner) *UploadUsecase {
	u.cleaner = cleaner
	return u
}

// WithBroadcaster enables live progress events (fluent)
func (u *UploadUsecase) WithBroadcaster(b repository.IProgressBroadcaster) *UploadUsecase {
	u.broadcaster = b
	return u
}

func (u *UploadUsecase) UploadVideo(ctx context.Context, req *dto.UploadVideoRequest) (*model.UploadJob, error) {
	meta, err := BuildMetadata(ctx, req, u.now())
	if err != nil {
		return nil, err
	}

	job := model.NewUploadJob(u.newID(), meta, u.now())
	log := logger.FromContext(ctx).WithField("job_id", job.ID)
	log.WithFields(map[string]interface{}{
		"title":   meta.Title,
		"privacy": meta.Privacy,
		"source":  meta.SourceURL,
	}).Info("Upload job start")
	u.saveJob(ctx, job)

	// The upload outlives a disconnected client; its result stays
	// available through GetJob.
	runCtx := context.WithoutCancel(ctx)
	if u.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, u.timeout)
		defer cancel()
	}

	video, err := u.publish(runCtx, job, meta)
	if err != nil {
		job.Fail(err, u.now())
		log.WithField("error", err).WithField("kind", job.ErrorKind).Error("Upload job failed")
	} else {
		job.Complete(video, u.now())
		log.WithField("youtube_url", job.YouTubeURL).Info("Upload job complete")
	}

	// runCtx may already be past its deadline here.
	finishCtx, cancelFinish := context.WithTimeout(context.WithoutCancel(ctx), finishGrace)
	defer cancelFinish()
	u.finish(finishCtx, job)
	return job, err
}

func (u *UploadUsecase) GetJob(ctx context.Context, jobID string) (*model.UploadJob, error) {
	if jobID == "" {
		return nil, &model.ValidationError{Field: "job_id", Message: "is required"}
	}
	return u.jobs.Get(ctx, jobID)
}

// publish runs the external steps in order: token exchange, fetch, insert,
// then the optional thumbnail and source deletion.
func (u *UploadUsecase) publish(ctx context.Context, job *model.UploadJob, meta *model.VideoMetadata) (*model.UploadedVideo, error) {
	log := logger.FromContext(ctx).WithField("job_id", job.ID)

	token, err := u.tokens.Exchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange refresh token: %w", err)
	}

	file, err := u.fetcher.Fetch(ctx, meta.SourceURL, u.progress(ctx, job.ID, model.StageDownload, 10))
	if err != nil {
		return nil, fmt.Errorf("download source video: %w", err)
	}
	defer removeFile(ctx, file.Path)
	job.SourceFilename = file.Filename

	media, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("open downloaded video: %w", err)
	}
	defer media.Close()

	video, err := u.uploader.UploadVideo(ctx, token, meta, media, file.Size, u.progress(ctx, job.ID, model.StageUpload, 5))
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}
	if video == nil || video.ID == "" {
		return nil, &model.UpstreamError{Message: "videos.insert response carried no video id"}
	}
	log.WithField("video_id", video.ID).Info("Video inserted")

	if meta.ThumbnailURL != "" {
		job.ThumbnailSet = u.setThumbnail(ctx, job.ID, token, video.ID, meta.ThumbnailURL)
	}
	if meta.SourceDeleteURL != "" {
		if u.cleaner != nil {
			job.SourceDelete = u.cleaner.Delete(ctx, meta.SourceDeleteURL)
		} else {
			log.Warn("bunny_delete_url given but no source cleaner configured")
		}
	}
	return video, nil
}

// setThumbnail is best effort: the video is already published, so failures
// are logged and reported as false.
func (u *UploadUsecase) setThumbnail(ctx context.Context, jobID string, token *model.AccessToken, videoID, thumbnailURL string) bool {
	log := logger.FromContext(ctx).WithField("job_id", jobID).WithField("video_id", videoID)

	file, err := u.fetcher.Fetch(ctx, thumbnailURL, nil)
	if err != nil {
		log.WithField("error", err).Warn("Thumbnail download failed (non-fatal)")
		return false
	}
	defer removeFile(ctx, file.Path)

	media, err := os.Open(file.Path)
	if err != nil {
		log.WithField("error", err).Warn("Thumbnail open failed (non-fatal)")
		return false
	}
	defer media.Close()

	if err := u.uploader.SetThumbnail(ctx, token, videoID, media); err != nil {
		log.WithField("error", err).Warn("Thumbnail upload failed (non-fatal)")
		return false
	}
	u.broadcast(model.ProgressEvent{JobID: jobID, Stage: model.StageThumbnail, Percent: 100, State: model.JobStateProcessing})
	log.Info("Thumbnail set")
	return true
}

// finish persists the final job state and announces it.
func (u *UploadUsecase) finish(ctx context.Context, job *model.UploadJob) {
	u.saveJob(ctx, job)
	u.broadcast(model.ProgressEvent{
		JobID:   job.ID,
		Stage:   model.StageDone,
		Percent: 100,
		State:   job.State,
		VideoID: job.VideoID,
		Error:   job.Error,
	})
	for _, events := range u.events {
		if err := events.PublishUploadFinished(ctx, job); err != nil {
			logger.FromContext(ctx).WithField("job_id", job.ID).WithField("error", err).Warn("Failed to publish upload event")
		}
	}
}

// saveJob never fails the upload; a lost status record only affects /status-check.
func (u *UploadUsecase) saveJob(ctx context.Context, job *model.UploadJob) {
	if err := u.jobs.Save(ctx, job); err != nil {
		logger.FromContext(ctx).WithField("job_id", job.ID).WithField("error", err).Warn("Failed to save upload job")
	}
}

func (u *UploadUsecase) broadcast(evt model.ProgressEvent) {
	if u.broadcaster != nil {
		u.broadcaster.BroadcastProgress(evt)
	}
}

// progress returns a callback that logs and broadcasts every step percent.
func (u *UploadUsecase) progress(ctx context.Context, jobID, stage string, step int) func(done, total int64) {
	log := logger.FromContext(ctx).WithField("job_id", jobID)
	next := 0
	return func(done, total int64) {
		if total <= 0 {
			return
		}
		pct := int(done * 100 / total)
		if pct < next {
			return
		}
		for next <= pct {
			next += step
		}
		log.WithField("stage", stage).WithField("percent", pct).Info("Upload progress")
		u.broadcast(model.ProgressEvent{JobID: jobID, Stage: stage, Percent: pct, State: model.JobStateProcessing})
	}
}

func removeFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.FromContext(ctx).WithField("path", path).WithField("error", err).Warn("Failed to remove temp file")
	}
}

type unavailableUploadUsecase struct {
	err error
}

// NewUnavailableUploadUsecase rejects every upload with err. It backs the
// upload route while the service runs without usable credentials.
func NewUnavailableUploadUsecase(err error) IUploadUsecase {
	return &unavailableUploadUsecase{err: err}
}

func (u *unavailableUploadUsecase) UploadVideo(ctx context.Context, req *dto.UploadVideoRequest) (*model.UploadJob, error) {
	if _, err := BuildMetadata(ctx, req, time.Now()); err != nil {
		return nil, err
	}
	return nil, u.err
}

func (u *unavailableUploadUsecase) GetJob(context.Context, string) (*model.UploadJob, error) {
	return nil, model.ErrJobNotFound
}
