package model

import "time"

// Privacy statuses accepted by videos.insert.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// DefaultPrivacy is applied when the request leaves privacy empty.
const DefaultPrivacy = PrivacyUnlisted

// ValidPrivacy reports whether p is one of the accepted privacy statuses.
func ValidPrivacy(p string) bool {
	switch p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}

// VideoMetadata is the validated form of an upload request.
type VideoMetadata struct {
	SourceURL       string
	Title           string
	Description     string
	Privacy         string
	Tags            []string
	CategoryID      string
	ThumbnailURL    string
	SourceDeleteURL string
	// PublishAt is set only when the video is scheduled for a future time.
	PublishAt *time.Time
}

// AccessToken is a short-lived OAuth2 bearer token.
type AccessToken struct {
	Value  string
	Type   string
	Expiry time.Time
}

// FetchedFile describes a remote file downloaded to local disk.
// The caller owns Path and must remove it.
type FetchedFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// UploadedVideo is what the video platform returns for a successful insert.
type UploadedVideo struct {
	ID            string
	Title         string
	PrivacyStatus string
	UploadStatus  string
}

// YouTubeURL returns the short watch link for a video ID.
func YouTubeURL(videoID string) string {
	return "https://youtu.be/" + videoID
}
