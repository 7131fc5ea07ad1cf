package persistence

import (
	"context"
	"testing"
	"time"

	"youtube-uploader/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadJobRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	repo := NewUploadJobRepository(time.Hour).(*UploadJobRepository)
	repo.now = func() time.Time { return now }

	job := &model.UploadJob{ID: "job-1", State: model.JobStateProcessing, Title: "Sunset"}
	require.NoError(t, repo.Save(ctx, job))

	t.Run("returns a copy of the saved job", func(t *testing.T) {
		got, err := repo.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "Sunset", got.Title)

		got.Title = "changed"
		again, err := repo.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "Sunset", again.Title)
	})

	t.Run("later saves overwrite", func(t *testing.T) {
		job.State = model.JobStateCompleted
		job.VideoID = "abc123"
		require.NoError(t, repo.Save(ctx, job))

		got, err := repo.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, model.JobStateCompleted, got.State)
		assert.Equal(t, "abc123", got.VideoID)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, model.ErrJobNotFound)
	})

	t.Run("expired job", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := repo.Get(ctx, "job-1")
		assert.ErrorIs(t, err, model.ErrJobNotFound)

		require.NoError(t, repo.Save(ctx, &model.UploadJob{ID: "job-2"}))
		assert.Len(t, repo.jobs, 1)
	})
}
