package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"youtube-uploader/domain/dto"
	"youtube-uploader/domain/model"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestBuildMetadata_Defaults(t *testing.T) {
	meta, err := BuildMetadata(context.Background(), &dto.UploadVideoRequest{
		VideoURL: " https://cdn.example.com/a.mp4 ",
		Title:    "  Sunset  ",
		Tags:     "sun, sea ,,beach",
	}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/a.mp4", meta.SourceURL)
	assert.Equal(t, "Sunset", meta.Title)
	assert.Equal(t, model.PrivacyUnlisted, meta.Privacy)
	assert.Equal(t, []string{"sun", "sea", "beach"}, meta.Tags)
	assert.Nil(t, meta.PublishAt)
}

func TestBuildMetadata_Privacy(t *testing.T) {
	for _, p := range []string{"public", "UNLISTED", "Private"} {
		meta, err := BuildMetadata(context.Background(), &dto.UploadVideoRequest{
			VideoURL: "https://cdn.example.com/a.mp4", Title: "Sunset", Privacy: p,
		}, fixedNow)
		require.NoError(t, err, p)
		assert.Equal(t, strings.ToLower(p), meta.Privacy)
	}
}

func TestBuildMetadata_Rejects(t *testing.T) {
	base := func() *dto.UploadVideoRequest {
		return &dto.UploadVideoRequest{VideoURL: "https://cdn.example.com/a.mp4", Title: "Sunset"}
	}
	tests := []struct {
		name   string
		mutate func(r *dto.UploadVideoRequest)
		field  string
	}{
		{"title too long", func(r *dto.UploadVideoRequest) { r.Title = strings.Repeat("é", 101) }, "title"},
		{"title with angle brackets", func(r *dto.UploadVideoRequest) { r.Title = "<b>Sunset</b>" }, "title"},
		{"description too long", func(r *dto.UploadVideoRequest) { r.Description = strings.Repeat("a", 5001) }, "description"},
		{"category not numeric", func(r *dto.UploadVideoRequest) { r.CategoryID = "music" }, "category_id"},
		{"relative thumbnail", func(r *dto.UploadVideoRequest) { r.ThumbnailURL = "/thumb.jpg" }, "thumbnail_url"},
		{"ftp delete url", func(r *dto.UploadVideoRequest) { r.BunnyDeleteURL = "ftp://storage/a.mp4" }, "bunny_delete_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			_, err := BuildMetadata(context.Background(), req, fixedNow)

			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestBuildMetadata_TitleOfExactlyMaxLength(t *testing.T) {
	_, err := BuildMetadata(context.Background(), &dto.UploadVideoRequest{
		VideoURL: "https://cdn.example.com/a.mp4", Title: strings.Repeat("é", 100),
	}, fixedNow)
	assert.NoError(t, err)
}

func TestBuildMetadata_PublishAt(t *testing.T) {
	tests := []struct {
		name        string
		publishAt   string
		privacy     string
		wantPrivacy string
		wantAt      *time.Time
	}{
		{
			name:        "future RFC3339 schedules as private",
			publishAt:   "2025-06-02T08:30:00+02:00",
			privacy:     "public",
			wantPrivacy: model.PrivacyPrivate,
			wantAt:      ptr(time.Date(2025, 6, 2, 6, 30, 0, 0, time.UTC)),
		},
		{
			name:        "RFC3339 without seconds keeps its offset",
			publishAt:   "2025-06-02T08:30+02:00",
			privacy:     "public",
			wantPrivacy: model.PrivacyPrivate,
			wantAt:      ptr(time.Date(2025, 6, 2, 6, 30, 0, 0, time.UTC)),
		},
		{
			name:        "RFC3339 without seconds in UTC",
			publishAt:   "2025-06-02T08:30Z",
			privacy:     "unlisted",
			wantPrivacy: model.PrivacyPrivate,
			wantAt:      ptr(time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)),
		},
		{
			name:        "future short layout is UTC",
			publishAt:   "2025-06-03 09:00",
			privacy:     "unlisted",
			wantPrivacy: model.PrivacyPrivate,
			wantAt:      ptr(time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)),
		},
		{
			name:        "past time publishes immediately",
			publishAt:   "2024-01-01 00:00",
			privacy:     "public",
			wantPrivacy: model.PrivacyPublic,
		},
		{
			name:        "unparseable time publishes immediately",
			publishAt:   "next tuesday",
			privacy:     "public",
			wantPrivacy: model.PrivacyPublic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := BuildMetadata(context.Background(), &dto.UploadVideoRequest{
				VideoURL:  "https://cdn.example.com/a.mp4",
				Title:     "Sunset",
				Privacy:   tt.privacy,
				PublishAt: tt.publishAt,
			}, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrivacy, meta.Privacy)
			if tt.wantAt == nil {
				assert.Nil(t, meta.PublishAt)
				return
			}
			require.NotNil(t, meta.PublishAt)
			assert.True(t, tt.wantAt.Equal(*meta.PublishAt))
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
