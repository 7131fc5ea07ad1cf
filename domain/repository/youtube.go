package repository

import (
	"context"
	"io"

	"youtube-uploader/domain/model"
)

// ITokenExchanger trades the configured refresh token for an access token.
type ITokenExchanger interface {
	Exchange(ctx context.Context) (*model.AccessToken, error)
}

// IVideoUploader publishes media to the video platform.
type IVideoUploader interface {
	// UploadVideo inserts a video. progress, if non-nil, receives bytes sent so far.
	UploadVideo(ctx context.Context, token *model.AccessToken, meta *model.VideoMetadata, media io.Reader, size int64, progress func(sent, total int64)) (*model.UploadedVideo, error)
	SetThumbnail(ctx context.Context, token *model.AccessToken, videoID string, media io.Reader) error
}

// IVideoFetcher downloads a remote file to local disk.
type IVideoFetcher interface {
	// Fetch downloads rawURL into a temporary file. progress, if non-nil, receives
	// bytes read so far and the advertised total (zero when unknown).
	Fetch(ctx context.Context, rawURL string, progress func(read, total int64)) (*model.FetchedFile, error)
}

// ISourceCleaner deletes the source file once it has been published.
type ISourceCleaner interface {
	Delete(ctx context.Context, rawURL string) *model.SourceDeleteResult
}
