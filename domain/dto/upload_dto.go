package dto

import "time"

// UploadVideoRequest is the JSON body of POST /upload-to-youtube.
type UploadVideoRequest struct {
	VideoURL       string `json:"video_url"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Privacy        string `json:"privacy"`
	Tags           string `json:"tags"` // comma separated
	CategoryID     string `json:"category_id"`
	ThumbnailURL   string `json:"thumbnail_url"`
	BunnyDeleteURL string `json:"bunny_delete_url"`
	PublishAt      string `json:"publish_at"` // RFC3339 or "2006-01-02 15:04" UTC
}

// UploadVideoResponse is returned when the upload succeeds.
type UploadVideoResponse struct {
	Success      bool       `json:"success"`
	JobID        string     `json:"job_id"`
	VideoID      string     `json:"video_id"`
	YouTubeURL   string     `json:"youtube_url"`
	Privacy      string     `json:"privacy"`
	PublishAt    *time.Time `json:"publish_at,omitempty"`
	ThumbnailSet bool       `json:"thumbnail_set"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	Message        string `json:"message"`
	JobID          string `json:"job_id,omitempty"`
	Field          string `json:"field,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}
