package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"youtube-uploader/domain/model"
)

func TestHub_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewProgressHub()

	router := gin.New()
	router.GET("/upload-events/:jobId", func(c *gin.Context) {
		events, cancel := hub.Subscribe(c.Param("jobId"))
		defer cancel()
		hub.Stream(c, events)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/upload-events/job-1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers("job-1") == 1 }, 2*time.Second, 5*time.Millisecond)

	// Events for other jobs are not delivered.
	hub.BroadcastProgress(model.ProgressEvent{JobID: "job-2", Stage: model.StageUpload, Percent: 50, State: model.JobStateProcessing})
	hub.BroadcastProgress(model.ProgressEvent{JobID: "job-1", Stage: model.StageDownload, Percent: 40, State: model.JobStateProcessing})
	hub.BroadcastProgress(model.ProgressEvent{JobID: "job-1", Stage: model.StageDone, Percent: 100, State: model.JobStateCompleted, VideoID: "abc123"})

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("stream did not end after the job finished")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(body, `"stage":`))
	assert.Contains(t, body, `"percent":40`)
	assert.Contains(t, body, `"video_id":"abc123"`)
	assert.NotContains(t, body, `"percent":50`)
	assert.Zero(t, hub.Subscribers("job-1"))
}

func TestHub_Subscribe_BuffersUntilStreamed(t *testing.T) {
	hub := NewProgressHub()
	events, cancel := hub.Subscribe("job-1")

	hub.BroadcastProgress(model.ProgressEvent{JobID: "job-1", Stage: model.StageDone, Percent: 100, State: model.JobStateFailed})

	select {
	case evt := <-events:
		assert.Equal(t, model.JobStateFailed, evt.State)
		assert.Equal(t, "upload_progress", evt.Type)
	default:
		t.Fatal("event broadcast after Subscribe was not buffered")
	}

	cancel()
	assert.Zero(t, hub.Subscribers("job-1"))
}

func TestHub_BroadcastProgress_FinalEventOnFullBuffer(t *testing.T) {
	hub := NewProgressHub()
	events, cancel := hub.Subscribe("job-1")
	defer cancel()

	for i := 0; i < subscriberBuffer+4; i++ {
		hub.BroadcastProgress(model.ProgressEvent{JobID: "job-1", Stage: model.StageUpload, Percent: i, State: model.JobStateProcessing})
	}
	hub.BroadcastProgress(model.ProgressEvent{JobID: "job-1", Stage: model.StageDone, Percent: 100, State: model.JobStateCompleted, VideoID: "abc123"})

	var received []model.ProgressEvent
	for len(events) > 0 {
		received = append(received, <-events)
	}
	require.Len(t, received, subscriberBuffer)
	last := received[len(received)-1]
	assert.Equal(t, model.JobStateCompleted, last.State)
	assert.Equal(t, "abc123", last.VideoID)
	assert.Equal(t, 1, received[0].Percent)
}
