package configuration

import (
	"fmt"
	"strings"
	"time"

	"youtube-uploader/domain/model"
)

// DefaultTokenURI is Google's OAuth2 token endpoint.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

// YouTube holds the credentials of the pre-authorized account.
type YouTube struct {
	ClientID     string        `mapstructure:"clientId"`
	ClientSecret string        `mapstructure:"clientSecret"`
	RefreshToken string        `mapstructure:"refreshToken"`
	TokenURI     string        `mapstructure:"tokenUri"`
	APIEndpoint  string        `mapstructure:"apiEndpoint"`
	RedirectURL  string        `mapstructure:"redirectUrl"`
	TokenTimeout time.Duration `mapstructure:"tokenTimeout"`
}

func (y *YouTube) applyDefaults(app App) {
	if y.TokenURI == "" {
		y.TokenURI = DefaultTokenURI
	}
	if y.TokenTimeout <= 0 {
		y.TokenTimeout = 30 * time.Second
	}
	if y.RedirectURL == "" {
		scheme := "http"
		if app.TLSEnabled {
			scheme = "https"
		}
		y.RedirectURL = fmt.Sprintf("%s://localhost:%d/auth/youtube/callback", scheme, app.Port)
	}
}

func (y *YouTube) validate() error {
	var missing []string
	if isPlaceholder(y.ClientID) {
		missing = append(missing, "YOUTUBE_CLIENT_ID")
	}
	if isPlaceholder(y.ClientSecret) {
		missing = append(missing, "YOUTUBE_CLIENT_SECRET")
	}
	if isPlaceholder(y.RefreshToken) {
		missing = append(missing, "YOUTUBE_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return &model.ConfigError{Message: "missing " + strings.Join(missing, ", ")}
	}
	return nil
}

// isPlaceholder treats empty values and "your_..." template values as unset.
func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(strings.ToLower(v), "your_")
}
