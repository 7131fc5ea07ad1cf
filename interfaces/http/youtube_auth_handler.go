package http

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"youtube-uploader/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const stateCookie = "oauth_state"

// IYouTubeAuthHandler serves the operator consent flow that mints the refresh
// token the uploader runs with.
type IYouTubeAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	HandleCallback(ctx *gin.Context)
}

// YouTubeAuthHandler implements YouTube OAuth2 authentication
type YouTubeAuthHandler struct {
	oauth2Config *oauth2.Config
}

func NewYouTubeAuthHandler(oauth2Config *oauth2.Config) IYouTubeAuthHandler {
	return &YouTubeAuthHandler{
		oauth2Config: oauth2Config,
	}
}

// GetAuthURL handles GET /auth/youtube
func (h *YouTubeAuthHandler) GetAuthURL(ctx *gin.Context) {
	state, err := generateRandomState()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate state", "message": err.Error()})
		return
	}
	ctx.SetCookie(stateCookie, state, 600, "/", "", false, true)

	// prompt=consent makes Google return a refresh token on every grant.
	authURL := h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	ctx.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
	})
}

// HandleCallback handles GET /auth/youtube/callback
func (h *YouTubeAuthHandler) HandleCallback(ctx *gin.Context) {
	log := logger.FromContext(ctx.Request.Context())

	if errorParam := ctx.Query("error"); errorParam != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":       fmt.Sprintf("OAuth error: %s", errorParam),
			"description": ctx.Query("error_description"),
		})
		return
	}

	state := ctx.Query("state")
	expected, err := ctx.Cookie(stateCookie)
	if state == "" || err != nil || state != expected {
		log.Warn("OAuth callback state mismatch")
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid or missing state parameter",
			"action": "Visit /auth/youtube to start over",
		})
		return
	}

	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Authorization code not found",
		})
		return
	}

	token, err := h.oauth2Config.Exchange(ctx.Request.Context(), code)
	if err != nil {
		log.WithField("error", err).Error("OAuth code exchange failed")
		ctx.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to exchange code for token",
			"message": err.Error(),
		})
		return
	}
	ctx.SetCookie(stateCookie, "", -1, "/", "", false, true)

	if token.RefreshToken == "" {
		ctx.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Google returned no refresh token. Revoke the app's access in your Google account and try again.",
		})
		return
	}

	log.Info("OAuth consent completed, refresh token issued")
	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"refresh_token": token.RefreshToken,
		"message":       "Authentication successful! Save the refresh token in your environment.",
		"next_steps": []string{
			"export YOUTUBE_REFRESH_TOKEN='" + token.RefreshToken + "'",
			"Restart the uploader",
		},
	})
}

func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
