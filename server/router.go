package server

import (
	"slices"
	"time"

	httpHandler "youtube-uploader/interfaces/http"
	"youtube-uploader/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// InitiateRouter registers the uploader routes. authHandler may be nil, in
// which case the consent flow routes are not registered.
func InitiateRouter(
	uploadHandler httpHandler.IUploadHandler,
	authHandler httpHandler.IYouTubeAuthHandler,
	allowOrigins []string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowOrigins)))
	router.Use(middleware.RequestLogger())

	router.GET("/", uploadHandler.Health)
	router.POST("/upload-to-youtube", uploadHandler.UploadToYouTube)
	router.GET("/status-check", uploadHandler.StatusCheck)
	router.GET("/upload-events/:jobId", uploadHandler.UploadEvents)

	// OAuth consent routes
	if authHandler != nil {
		router.GET("/auth/youtube", authHandler.GetAuthURL)
		router.GET("/auth/youtube/callback", authHandler.HandleCallback)
	}

	return router
}

func corsConfig(allowOrigins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = allowOrigins
	config.AllowCredentials = true
	return config
}
