package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"speech-grader/auth"
	"speech-grader/config"
	"speech-grader/constant"
	"speech-grader/handler"
	"speech-grader/pipeline"
	"speech-grader/repository"
	"speech-grader/service"
	"speech-grader/storage"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, err := repository.NewRepo(cfg.Database.Path)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to open ledger database")
	}
	if err := repo.Init(ctx); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to migrate ledger schema")
	}

	blobs, err := newStore(cfg)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize blob store")
	}

	transcriber, err := pipeline.NewGoogleTranscriber(ctx, pipeline.GoogleConfig{
		ProjectID:       cfg.Speech.ProjectID,
		CredentialsFile: cfg.Speech.CredentialsFile,
		LanguageCode:    cfg.Speech.LanguageCode,
		SampleRateHertz: cfg.Speech.SampleRateHertz,
	})
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to initialize speech client")
	}
	defer transcriber.Close()

	grader := pipeline.NewOpenAIGrader(cfg.Grading.APIKey, cfg.Grading.Model)
	pred := pipeline.New(transcriber, grader, time.Duration(cfg.Grading.TimeoutSeconds)*time.Second, cfg.Grading.Prompt)

	authManager := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	recordings := service.New(repo, blobs, pred)
	h := handler.New(recordings, repo, authManager)

	r := gin.Default()
	r.Use(requestLogger(ctx))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	addHealth(r)
	addRoutes(r, h, authManager)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Msg("server shutdown")
}

// requestLogger carries the process logger into every request context so
// zerolog.Ctx works in the layers below.
func requestLogger(ctx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(ctx)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func addRoutes(r *gin.Engine, h *handler.Handler, authManager *auth.Manager) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)

	recordings := r.Group("/recordings", auth.RequireAuth(authManager))
	{
		recordings.POST("", h.SubmitRecording)
		recordings.GET("", h.ListRecordings)
		recordings.GET("/:filename", h.GetRecordingAudio)
		recordings.DELETE("/:id", h.DeleteRecording)
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case constant.StorageBackendMinIO.String():
		if cfg.ObjectStore == nil {
			return nil, errors.New("minio backend selected but no client configured")
		}
		return storage.NewMinIO(cfg.ObjectStore, cfg.Storage.Bucket), nil
	case constant.StorageBackendLocal.String(), "":
		return storage.NewLocal(cfg.Storage.Root), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
