package youtube_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"youtube-uploader/domain/model"
	youtubeclient "youtube-uploader/infrastructure/clients/youtube"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, status int, body map[string]interface{}) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-token", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestTokenExchanger_Exchange(t *testing.T) {
	t.Run("returns the access token", func(t *testing.T) {
		srv, calls := newTokenServer(t, http.StatusOK, map[string]interface{}{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
		exchanger := youtubeclient.NewTokenExchanger(&youtubeclient.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RefreshToken: "refresh-token",
			TokenURI:     srv.URL,
		})

		token, err := exchanger.Exchange(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "access-1", token.Value)
		assert.Equal(t, "Bearer", token.Type)
		assert.WithinDuration(t, time.Now().Add(time.Hour), token.Expiry, time.Minute)

		// Each call performs its own exchange.
		_, err = exchanger.Exchange(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	})

	t.Run("revoked refresh token is an auth error", func(t *testing.T) {
		srv, _ := newTokenServer(t, http.StatusBadRequest, map[string]interface{}{
			"error":             "invalid_grant",
			"error_description": "Token has been expired or revoked.",
		})
		exchanger := youtubeclient.NewTokenExchanger(&youtubeclient.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RefreshToken: "refresh-token",
			TokenURI:     srv.URL,
		})

		token, err := exchanger.Exchange(context.Background())
		require.Error(t, err)
		assert.Nil(t, token)

		var authErr *model.AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, http.StatusBadRequest, authErr.Status)
		assert.Contains(t, authErr.Message, "invalid_grant")
	})
}

func newAPIServer(t *testing.T, handler http.HandlerFunc) *youtubeclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return youtubeclient.NewYouTubeClient(&youtubeclient.Config{
		APIEndpoint: srv.URL + "/",
		ChunkSize:   0,
	})
}

func TestClient_UploadVideo(t *testing.T) {
	token := &model.AccessToken{Value: "access-1", Type: "Bearer", Expiry: time.Now().Add(time.Hour)}
	publishAt := time.Date(2030, 1, 2, 3, 4, 0, 0, time.UTC)
	meta := &model.VideoMetadata{
		Title:       "Sunset",
		Description: "Golden hour",
		Privacy:     model.PrivacyPrivate,
		Tags:        []string{"sun", "sea"},
		PublishAt:   &publishAt,
	}

	t.Run("returns the assigned video id", func(t *testing.T) {
		var body string
		client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.True(t, strings.HasSuffix(r.URL.Path, "/youtube/v3/videos"), r.URL.Path)
			assert.Contains(t, r.URL.Query().Get("part"), "snippet")
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			raw, _ := io.ReadAll(r.Body)
			body = string(raw)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"abc123","snippet":{"title":"Sunset"},"status":{"privacyStatus":"private","uploadStatus":"uploaded"}}`))
		})

		video, err := client.UploadVideo(context.Background(), token, meta, strings.NewReader("video-bytes"), 11, nil)
		require.NoError(t, err)
		assert.Equal(t, "abc123", video.ID)
		assert.Equal(t, "private", video.PrivacyStatus)
		assert.Equal(t, "uploaded", video.UploadStatus)

		assert.Contains(t, body, `"title":"Sunset"`)
		assert.Contains(t, body, `"selfDeclaredMadeForKids":false`)
		assert.Contains(t, body, `"publishAt":"2030-01-02T03:04:00Z"`)
		assert.Contains(t, body, "video-bytes")
	})

	t.Run("api rejection is an upstream error with status", func(t *testing.T) {
		client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.","errors":[{"reason":"quotaExceeded"}]}}`))
		})

		video, err := client.UploadVideo(context.Background(), token, meta, strings.NewReader("video-bytes"), 11, nil)
		require.Error(t, err)
		assert.Nil(t, video)

		var upErr *model.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusForbidden, upErr.Status)
		assert.Contains(t, upErr.Message, "quota")
	})
}

func TestClient_SetThumbnail(t *testing.T) {
	var hit int32
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/youtube/v3/thumbnails/set"), r.URL.Path)
		assert.Equal(t, "abc123", r.URL.Query().Get("videoId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"youtube#thumbnailSetResponse"}`))
	})

	err := client.SetThumbnail(context.Background(), &model.AccessToken{Value: "access-1"}, "abc123", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hit))
}
