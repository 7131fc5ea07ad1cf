package usecase

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"youtube-uploader/domain/dto"
	"youtube-uploader/domain/model"
	"youtube-uploader/infrastructure/logger"
)

// YouTube metadata limits.
const (
	maxTitleRunes       = 100
	maxDescriptionBytes = 5000
)

// publishAtLayouts are tried in order; zone-less layouts are read as UTC.
var publishAtLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02 15:04"}

// BuildMetadata validates req and returns the metadata to publish. Validation
// failures are returned as *model.ValidationError.
func BuildMetadata(ctx context.Context, req *dto.UploadVideoRequest, now time.Time) (*model.VideoMetadata, error) {
	if req == nil {
		return nil, &model.ValidationError{Message: "request body is required"}
	}

	meta := &model.VideoMetadata{
		SourceURL:   strings.TrimSpace(req.VideoURL),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Privacy:     strings.ToLower(strings.TrimSpace(req.Privacy)),
		Tags:        splitTags(req.Tags),
		CategoryID:  strings.TrimSpace(req.CategoryID),
	}

	if meta.SourceURL == "" {
		return nil, &model.ValidationError{Field: "video_url", Message: "is required"}
	}
	if !isHTTPURL(meta.SourceURL) {
		return nil, &model.ValidationError{Field: "video_url", Message: "must be an absolute http or https URL"}
	}
	if meta.Title == "" {
		return nil, &model.ValidationError{Field: "title", Message: "is required"}
	}
	if utf8.RuneCountInString(meta.Title) > maxTitleRunes {
		return nil, &model.ValidationError{Field: "title", Message: "must be at most 100 characters"}
	}
	if strings.ContainsAny(meta.Title, "<>") {
		return nil, &model.ValidationError{Field: "title", Message: "must not contain < or >"}
	}
	if len(meta.Description) > maxDescriptionBytes {
		return nil, &model.ValidationError{Field: "description", Message: "must be at most 5000 bytes"}
	}
	if meta.Privacy == "" {
		meta.Privacy = model.DefaultPrivacy
	}
	if !model.ValidPrivacy(meta.Privacy) {
		return nil, &model.ValidationError{Field: "privacy", Message: "must be one of public, unlisted, private"}
	}
	if meta.CategoryID != "" && !isDigits(meta.CategoryID) {
		return nil, &model.ValidationError{Field: "category_id", Message: "must be a numeric category id"}
	}
	if v := strings.TrimSpace(req.ThumbnailURL); v != "" {
		if !isHTTPURL(v) {
			return nil, &model.ValidationError{Field: "thumbnail_url", Message: "must be an absolute http or https URL"}
		}
		meta.ThumbnailURL = v
	}
	if v := strings.TrimSpace(req.BunnyDeleteURL); v != "" {
		if !isHTTPURL(v) {
			return nil, &model.ValidationError{Field: "bunny_delete_url", Message: "must be an absolute http or https URL"}
		}
		meta.SourceDeleteURL = v
	}

	if raw := strings.TrimSpace(req.PublishAt); raw != "" {
		applySchedule(ctx, meta, raw, now)
	}
	return meta, nil
}

// applySchedule sets PublishAt for future times. YouTube only schedules
// private videos, so scheduling forces the privacy status.
func applySchedule(ctx context.Context, meta *model.VideoMetadata, raw string, now time.Time) {
	log := logger.FromContext(ctx).WithField("publish_at", raw)
	at, ok := parsePublishAt(raw)
	if !ok {
		log.Warn("publish_at parse failed; publishing immediately")
		return
	}
	if !at.After(now) {
		log.Info("publish_at is in the past; publishing immediately")
		return
	}
	at = at.UTC()
	meta.PublishAt = &at
	meta.Privacy = model.PrivacyPrivate
	log.WithField("scheduled_for", at.Format(time.RFC3339)).Info("Scheduling video")
}

func parsePublishAt(raw string) (time.Time, bool) {
	for _, layout := range publishAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
