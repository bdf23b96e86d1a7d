package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/config"
	"github.com/xxxsen/medassist/internal/handler"
	"github.com/xxxsen/medassist/internal/job"
	"github.com/xxxsen/medassist/internal/metrics"
	"github.com/xxxsen/medassist/internal/middleware"
	"github.com/xxxsen/medassist/internal/schedule"
)

func main() {
	var configPath string
	var indexDir string

	rootCmd := &cobra.Command{
		Use:   "medassist",
		Short: "medical assistant chat server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run medassist server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			app, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return runServer(ctx, cfg, app)
		},
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "index a directory of documents into the shared knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexDir == "" {
				return fmt.Errorf("--dir is required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			app, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return indexDirectory(ctx, app.documents, indexDir)
		},
	}
	indexCmd.Flags().StringVar(&indexDir, "dir", "", "directory with pdf, txt or md files")

	rootCmd.AddCommand(runCmd, indexCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func runServer(ctx context.Context, cfg *config.Config, app *application) error {
	logger := logutil.GetLogger(ctx)
	scheduler := schedule.NewCronScheduler(schedule.WithJobTimeout(5 * time.Minute))
	if app.mailer != nil {
		if err := scheduler.AddJob(job.NewReminderJob(app.reminders), cfg.Jobs.ReminderSpec); err != nil {
			return err
		}
	}
	if err := scheduler.AddJob(job.NewSessionCleanupJob(app.documents), cfg.Jobs.SessionCleanupSpec); err != nil {
		return err
	}
	if cfg.AI.EmbedCache.EnableDB {
		cleanup := job.NewEmbeddingCacheCleanupJob(app.embedCache, cfg.AI.EmbedCache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Jobs.EmbedCacheSpec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(app.auth),
		Chat:      handler.NewChatHandler(app.chat),
		Documents: handler.NewDocumentHandler(app.documents, cfg.Ingest.MaxUploadSize),
		Assist:    handler.NewAssistHandler(app.locator, app.reminders, app.speech, app.tips),
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimit: time.Duration(cfg.RateLimit) * time.Millisecond,
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
			group.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.Metrics(),
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	return nil
}
