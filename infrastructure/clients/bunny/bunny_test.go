package bunny_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"youtube-uploader/infrastructure/clients/bunny"

	"github.com/stretchr/testify/assert"
)

func TestStorage_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.Header.Get("AccessKey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"Message":"Unauthorized"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"HttpCode":200,"Message":"File deleted successfuly."}`))
	}))
	defer srv.Close()

	t.Run("deletes with the access key", func(t *testing.T) {
		res := bunny.NewStorage(srv.Client(), "secret").Delete(context.Background(), srv.URL+"/zone/clip.mp4")
		assert.True(t, res.OK)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, res.Text, "deleted")
	})

	t.Run("rejection is reported, not returned", func(t *testing.T) {
		res := bunny.NewStorage(srv.Client(), "wrong").Delete(context.Background(), srv.URL+"/zone/clip.mp4")
		assert.False(t, res.OK)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("transport failure is reported", func(t *testing.T) {
		res := bunny.NewStorage(srv.Client(), "secret").Delete(context.Background(), "http://127.0.0.1:1/zone/clip.mp4")
		assert.False(t, res.OK)
		assert.NotEmpty(t, res.Error)
	})
}
