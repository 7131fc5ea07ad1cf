package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"youtube-uploader/domain/model"
	uploadpubsub "youtube-uploader/infrastructure/pubsub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestUploadEventPubSub_PublishUploadFinished(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the topic and publishes the job", func(t *testing.T) {
		client, srv := newFakeClient(t)
		publisher := uploadpubsub.NewUploadEventPubSub(client, "uploads")

		job := &model.UploadJob{ID: "job-1", State: model.JobStateCompleted, VideoID: "abc123"}
		require.NoError(t, publisher.PublishUploadFinished(ctx, job))
		require.NoError(t, publisher.PublishUploadFinished(ctx, &model.UploadJob{ID: "job-2", State: model.JobStateFailed}))

		msgs := srv.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "completed", msgs[0].Attributes["state"])
		assert.Equal(t, "job-1", msgs[0].Attributes["job_id"])

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(msgs[0].Data, &body))
		assert.Equal(t, "upload_finished", body["type"])
		assert.Equal(t, "abc123", body["video_id"])
	})

	t.Run("failed topic lookup is retried", func(t *testing.T) {
		client, srv := newFakeClient(t)
		publisher := uploadpubsub.NewUploadEventPubSub(client, "uploads")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, publisher.PublishUploadFinished(cancelled, &model.UploadJob{ID: "job-1", State: model.JobStateFailed}))

		require.NoError(t, publisher.PublishUploadFinished(ctx, &model.UploadJob{ID: "job-2", State: model.JobStateCompleted}))
		msgs := srv.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "job-2", msgs[0].Attributes["job_id"])
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		publisher := uploadpubsub.NewUploadEventPubSub(nil, "uploads")
		assert.NoError(t, publisher.PublishUploadFinished(ctx, &model.UploadJob{ID: "job-1"}))
	})
}
