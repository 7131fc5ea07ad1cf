package model

import "time"

// JobState is the lifecycle state of an upload job.
type JobState string

const (
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// SourceDeleteResult records the outcome of deleting the source file after upload.
type SourceDeleteResult struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code,omitempty"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
}

// UploadJob is the status record kept for one upload request.
type UploadJob struct {
	ID             string              `json:"job_id"`
	State          JobState            `json:"state"`
	Title          string              `json:"title"`
	Privacy        string              `json:"privacy"`
	SourceFilename string              `json:"source_filename,omitempty"`
	VideoID        string              `json:"video_id,omitempty"`
	YouTubeURL     string              `json:"youtube_url,omitempty"`
	PublishAt      *time.Time          `json:"publish_at,omitempty"`
	ThumbnailSet   bool                `json:"thumbnail_set"`
	SourceDelete   *SourceDeleteResult `json:"source_delete,omitempty"`
	ErrorKind      ErrorKind           `json:"error_kind,omitempty"`
	Error          string              `json:"error,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}

// NewUploadJob starts a job in the processing state.
func NewUploadJob(id string, meta *VideoMetadata, now time.Time) *UploadJob {
	return &UploadJob{
		ID:        id,
		State:     JobStateProcessing,
		Title:     meta.Title,
		Privacy:   meta.Privacy,
		PublishAt: meta.PublishAt,
		StartedAt: now.UTC(),
	}
}

// Complete marks the job as finished with the uploaded video.
func (j *UploadJob) Complete(video *UploadedVideo, now time.Time) {
	finished := now.UTC()
	j.State = JobStateCompleted
	j.VideoID = video.ID
	j.YouTubeURL = YouTubeURL(video.ID)
	j.FinishedAt = &finished
}

// Fail marks the job as failed and records the error.
func (j *UploadJob) Fail(err error, now time.Time) {
	finished := now.UTC()
	j.State = JobStateFailed
	j.ErrorKind = KindOf(err)
	j.Error = err.Error()
	j.FinishedAt = &finished
}

// ProgressEvent is broadcast to subscribers of a job while it runs.
type ProgressEvent struct {
	Type    string   `json:"type"`
	JobID   string   `json:"job_id"`
	Stage   string   `json:"stage"`
	Percent int      `json:"percent"`
	State   JobState `json:"state"`
	VideoID string   `json:"video_id,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Progress stages.
const (
	StageDownload  = "download"
	StageUpload    = "upload"
	StageThumbnail = "thumbnail"
	StageDone      = "done"
)
