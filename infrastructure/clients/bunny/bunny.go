package bunny

import (
	"context"
	"io"
	"net/http"

	"youtube-uploader/domain/model"
	"youtube-uploader/infrastructure/logger"
)

// maxBodyText bounds the response text kept in job records.
const maxBodyText = 500

// Storage deletes files from Bunny storage zones.
type Storage struct {
	httpClient *http.Client
	apiKey     string
}

func NewStorage(httpClient *http.Client, apiKey string) *Storage {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Storage{httpClient: httpClient, apiKey: apiKey}
}

// Delete issues an authenticated DELETE for rawURL. It never fails the caller;
// the outcome is reported in the returned result.
func (s *Storage) Delete(ctx context.Context, rawURL string) *model.SourceDeleteResult {
	log := logger.FromContext(ctx).WithField("url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, rawURL, nil)
	if err != nil {
		log.WithField("error", err).Warn("Bunny delete request invalid")
		return &model.SourceDeleteResult{Error: err.Error()}
	}
	req.Header.Set("AccessKey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.WithField("error", err).Warn("Bunny delete failed")
		return &model.SourceDeleteResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyText))
	result := &model.SourceDeleteResult{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Text:       string(text),
	}
	if result.OK {
		log.WithField("status", resp.StatusCode).Info("Bunny delete OK")
	} else {
		log.WithField("status", resp.StatusCode).Warn("Bunny delete rejected")
	}
	return result
}
