package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"youtube-uploader/domain/model"
	"youtube-uploader/domain/repository"
	"youtube-uploader/infrastructure/cache"
	"youtube-uploader/infrastructure/clients/bunny"
	"youtube-uploader/infrastructure/clients/fetcher"
	youtubeclient "youtube-uploader/infrastructure/clients/youtube"
	"youtube-uploader/infrastructure/configuration"
	"youtube-uploader/infrastructure/logger"
	"youtube-uploader/infrastructure/persistence"
	"youtube-uploader/infrastructure/pubsub"
	"youtube-uploader/infrastructure/realtime"
	"youtube-uploader/infrastructure/servicebus"
	httpHandler "youtube-uploader/interfaces/http"
	"youtube-uploader/server"
	"youtube-uploader/usecase"

	"github.com/gin-gonic/gin"

	"golang.org/x/sync/errgroup"
)

// shutdownGrace bounds how long in-flight requests may finish after a signal.
const shutdownGrace = 30 * time.Second

// writeTimeout covers a whole upload request, which answers only after
// YouTube accepts the video. An unbounded upload gets no write deadline.
func writeTimeout(upload time.Duration) time.Duration {
	if upload <= 0 {
		return 0
	}
	return upload + time.Minute
}

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	// OS env keeps precedence over files.
	configuration.LoadEnvFromFile("config.env", ".env")

	cfg, cfgErr := configuration.LoadConfig()
	if cfg == nil {
		logger.GetLogger().WithField("error", cfgErr).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.Logger.Level)
	if cfg.App.Env == "production" || cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	youtubeConfig := &youtubeclient.Config{
		ClientID:     cfg.YouTube.ClientID,
		ClientSecret: cfg.YouTube.ClientSecret,
		RefreshToken: cfg.YouTube.RefreshToken,
		TokenURI:     cfg.YouTube.TokenURI,
		RedirectURL:  cfg.YouTube.RedirectURL,
		APIEndpoint:  cfg.YouTube.APIEndpoint,
		ChunkSize:    cfg.Upload.ChunkSize,
		TokenTimeout: cfg.YouTube.TokenTimeout,
		HTTPClient:   &http.Client{},
	}

	// The consent flow only needs the client credentials, so it can run
	// before a refresh token exists.
	var authHandler httpHandler.IYouTubeAuthHandler
	if cfg.Auth.ConsentFlowEnabled && cfg.YouTube.ClientID != "" && cfg.YouTube.ClientSecret != "" {
		authHandler = httpHandler.NewYouTubeAuthHandler(youtubeclient.NewOAuthConfig(youtubeConfig))
		logger.GetLogger().WithField("redirect_url", cfg.YouTube.RedirectURL).Info("OAuth consent flow enabled at /auth/youtube")
	}

	var (
		uploadUsecase usecase.IUploadUsecase
		progressHub   *realtime.Hub
		closers       []func()
	)
	if cfgErr != nil {
		if authHandler == nil {
			logger.GetLogger().WithField("error", cfgErr).Fatal("Invalid configuration")
		}
		logger.GetLogger().WithField("error", cfgErr).Warn("Uploads disabled until configuration is complete")
		uploadUsecase = usecase.NewUnavailableUploadUsecase(cfgErr)
	} else {
		var jobRepository repository.IUploadJob
		if addr := cfg.RedisClient.Addr(); addr != "" {
			redisClient, err := cache.NewCache(ctx, addr, cfg.RedisClient.Username, cfg.RedisClient.Password, cfg.RedisClient.DB)
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Redis not available - keeping upload jobs in memory")
			} else {
				jobRepository = cache.NewUploadJobCache(redisClient, cfg.Upload.JobTTL)
				closers = append(closers, func() { _ = redisClient.Close() })
				logger.GetLogger().WithField("addr", addr).Info("Upload jobs stored in Redis")
			}
		}
		if jobRepository == nil {
			jobRepository = persistence.NewUploadJobRepository(cfg.Upload.JobTTL)
		}

		progressHub = realtime.NewProgressHub()
		uc := usecase.NewUploadUsecase(
			youtubeclient.NewTokenExchanger(youtubeConfig),
			youtubeclient.NewYouTubeClient(youtubeConfig),
			fetcher.NewFetcher(&http.Client{}, cfg.Upload.TempDir, cfg.Upload.MaxBytes),
			jobRepository,
			cfg.Upload.Timeout,
		).WithBroadcaster(progressHub)

		if cfg.Pubsub.ProjectID != "" && cfg.Pubsub.Topic != "" {
			pubSubClient, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
			if err != nil {
				logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			} else {
				events := pubsub.NewUploadEventPubSub(pubSubClient, cfg.Pubsub.Topic)
				uc = uc.WithEvents(events)
				closers = append(closers, func() {
					if c, ok := events.(interface{ Close() }); ok {
						c.Close()
					}
					_ = pubSubClient.Close()
				})
			}
		}
		if sb := cfg.ServiceBus; sb.Queue != "" && (sb.Namespace != "" || sb.ConnectionString != "") {
			sbClient, err := servicebus.NewServiceBus(sb.Namespace, sb.ConnectionString)
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
			} else {
				uc = uc.WithEvents(servicebus.NewUploadEventServiceBus(sbClient, sb.Queue))
				closers = append(closers, func() { _ = sbClient.Close(context.Background()) })
			}
		}
		if cfg.Bunny.APIKey != "" {
			uc = uc.WithSourceCleaner(bunny.NewStorage(&http.Client{Timeout: time.Minute}, cfg.Bunny.APIKey))
		}
		uploadUsecase = uc
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	var streamer httpHandler.ProgressStreamer
	if progressHub != nil {
		streamer = progressHub
	}
	uploadHandler := httpHandler.NewUploadHandler(uploadUsecase, streamer)
	router := server.InitiateRouter(uploadHandler, authHandler, cfg.App.AllowOrigins)

	app := cfg.App
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.Upload.Timeout),
	}

	g, ctx := errgroup.WithContext(ctx)
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":          app.Port,
		"tls":           app.TLSEnabled,
		"uploadTimeout": cfg.Upload.Timeout.String(),
		"maxBytes":      cfg.Upload.MaxBytes,
		"uploadsActive": cfgErr == nil,
	}).Info("Starting application")
	g.Go(func() error {
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": app.TLSCertFile, "key": app.TLSKeyFile}).Info("Serving HTTPS")
			if err := httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if app.TLSEnabled {
			logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Server shutdown incomplete")
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).WithField("kind", model.KindOf(err)).Error("Server returned an error")
		os.Exit(2)
	}
	logger.GetLogger().Info("Application stopped")
}
