package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"youtube-uploader/domain/model"
	"youtube-uploader/infrastructure/logger"
)

// Fetcher streams remote files into temporary files.
type Fetcher struct {
	httpClient *http.Client
	tempDir    string
	maxBytes   int64
}

// NewFetcher creates a Fetcher. maxBytes <= 0 disables the size limit.
func NewFetcher(httpClient *http.Client, tempDir string, maxBytes int64) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient, tempDir: tempDir, maxBytes: maxBytes}
}

// Fetch downloads rawURL. Failures are returned as *model.FetchError and leave no file behind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, progress func(read, total int64)) (*model.FetchedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Message: err.Error(), Err: err}
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.FetchError{URL: rawURL, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, &model.FetchError{
			URL:      rawURL,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("source is %d bytes, limit is %d", resp.ContentLength, f.maxBytes),
			TooLarge: true,
		}
	}

	filename := SourceFilename(rawURL)
	tmp, err := os.CreateTemp(f.tempDir, "fetch-*"+path.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	n, err := io.Copy(tmp, &progressReader{r: body, total: max(resp.ContentLength, 0), fn: progress})
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, &model.FetchError{URL: rawURL, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	if f.maxBytes > 0 && n > f.maxBytes {
		_ = os.Remove(tmp.Name())
		return nil, &model.FetchError{
			URL:      rawURL,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("source exceeds limit of %d bytes", f.maxBytes),
			TooLarge: true,
		}
	}

	logger.FromContext(ctx).WithFields(map[string]interface{}{
		"file":  filename,
		"bytes": n,
		"path":  tmp.Name(),
	}).Info("Download complete")

	return &model.FetchedFile{
		Path:        tmp.Name(),
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        n,
	}, nil
}

// SourceFilename is the last path segment of rawURL, or "video.mp4" when there is none.
func SourceFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "video.mp4"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || strings.TrimSpace(name) == "" {
		return "video.mp4"
	}
	return name
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    func(read, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.read += int64(n)
		p.fn(p.read, p.total)
	}
	return n, err
}
