package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"youtube-uploader/domain/model"
	"youtube-uploader/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Config represents YouTube API configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURI     string
	RedirectURL  string
	// APIEndpoint overrides the API base path; empty means production.
	APIEndpoint  string
	ChunkSize    int
	TokenTimeout time.Duration
	// HTTPClient is the base transport for every outbound call; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Scopes requested for the uploading account.
var Scopes = []string{
	youtube.YoutubeUploadScope,
	youtube.YoutubeScope,
}

// NewOAuthConfig builds the OAuth2 client used for refresh and consent flows.
func NewOAuthConfig(config *Config) *oauth2.Config {
	endpoint := google.Endpoint
	if config.TokenURI != "" {
		endpoint.TokenURL = config.TokenURI
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}
}

// TokenExchanger trades the configured refresh token for an access token on every call.
type TokenExchanger struct {
	oauthConfig  *oauth2.Config
	refreshToken string
	timeout      time.Duration
	httpClient   *http.Client
}

// NewTokenExchanger creates a refresh-token exchanger for the configured account.
func NewTokenExchanger(config *Config) *TokenExchanger {
	timeout := config.TokenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TokenExchanger{
		oauthConfig:  NewOAuthConfig(config),
		refreshToken: config.RefreshToken,
		timeout:      timeout,
		httpClient:   config.HTTPClient,
	}
}

// Exchange returns a fresh access token or a *model.AuthError.
func (t *TokenExchanger) Exchange(ctx context.Context) (*model.AccessToken, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if t.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
	}

	// An expired token with only the refresh half set forces a round trip.
	token, err := t.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: t.refreshToken}).Token()
	if err != nil {
		authErr := &model.AuthError{Message: err.Error(), Err: err}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			if re.Response != nil {
				authErr.Status = re.Response.StatusCode
			}
			if re.ErrorCode != "" {
				authErr.Message = re.ErrorCode
				if re.ErrorDescription != "" {
					authErr.Message += ": " + re.ErrorDescription
				}
			}
		}
		return nil, authErr
	}

	logger.FromContext(ctx).WithField("expiry", token.Expiry).Debug("Access token obtained")
	return &model.AccessToken{
		Value:  token.AccessToken,
		Type:   token.Type(),
		Expiry: token.Expiry,
	}, nil
}

// Client publishes videos through the YouTube Data API v3.
type Client struct {
	endpoint   string
	chunkSize  int
	httpClient *http.Client
}

// NewYouTubeClient creates a new YouTube API client
func NewYouTubeClient(config *Config) *Client {
	return &Client{
		endpoint:   config.APIEndpoint,
		chunkSize:  config.ChunkSize,
		httpClient: config.HTTPClient,
	}
}

// service builds a per-request service authorized with token.
func (c *Client) service(ctx context.Context, token *model.AccessToken) (*youtube.Service, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tokenType := token.Type
	if tokenType == "" {
		tokenType = "Bearer"
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.Value,
		TokenType:   tokenType,
		Expiry:      token.Expiry,
	})

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// UploadVideo inserts media as a new video with meta's snippet and status.
func (c *Client) UploadVideo(
	ctx context.Context,
	token *model.AccessToken,
	meta *model.VideoMetadata,
	media io.Reader,
	size int64,
	progress func(sent, total int64),
) (*model.UploadedVideo, error) {
	service, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
	if meta.PublishAt != nil {
		video.Status.PublishAt = meta.PublishAt.UTC().Format(time.RFC3339)
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video).
		Context(ctx).
		Media(media, googleapi.ChunkSize(c.chunkSize), googleapi.ContentType("video/*"))
	if progress != nil {
		call = call.ProgressUpdater(func(current, _ int64) {
			progress(current, size)
		})
	}

	response, err := call.Do()
	if err != nil {
		return nil, upstreamError("videos.insert", err)
	}
	return convertToUploadedVideo(response), nil
}

// SetThumbnail replaces the custom thumbnail of videoID.
func (c *Client) SetThumbnail(ctx context.Context, token *model.AccessToken, videoID string, media io.Reader) error {
	service, err := c.service(ctx, token)
	if err != nil {
		return err
	}
	if _, err := service.Thumbnails.Set(videoID).Context(ctx).Media(media).Do(); err != nil {
		return upstreamError("thumbnails.set", err)
	}
	return nil
}

func convertToUploadedVideo(video *youtube.Video) *model.UploadedVideo {
	uploaded := &model.UploadedVideo{ID: video.Id}
	if video.Snippet != nil {
		uploaded.Title = video.Snippet.Title
	}
	if video.Status != nil {
		uploaded.PrivacyStatus = video.Status.PrivacyStatus
		uploaded.UploadStatus = video.Status.UploadStatus
	}
	return uploaded
}

// upstreamError passes the API's status and message through.
func upstreamError(op string, err error) *model.UpstreamError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" && len(gerr.Errors) > 0 {
			msg = gerr.Errors[0].Reason
		}
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &model.UpstreamError{Status: gerr.Code, Message: op + ": " + msg, Err: err}
	}
	return &model.UpstreamError{Message: op + ": " + err.Error(), Err: err}
}
