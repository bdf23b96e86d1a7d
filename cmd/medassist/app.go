package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/appctx"
	"github.com/xxxsen/medassist/internal/config"
	"github.com/xxxsen/medassist/internal/db"
	"github.com/xxxsen/medassist/internal/filestore"
	"github.com/xxxsen/medassist/internal/locator"
	"github.com/xxxsen/medassist/internal/notify"
	"github.com/xxxsen/medassist/internal/rag"
	"github.com/xxxsen/medassist/internal/repo"
	"github.com/xxxsen/medassist/internal/service"
	"github.com/xxxsen/medassist/internal/session"
	"github.com/xxxsen/medassist/internal/speech"
)

type application struct {
	db         *sql.DB
	shared     *appctx.AppContext
	sessions   session.Store
	embedCache *repo.EmbeddingCacheRepo
	mailer     notify.Sender

	auth      *service.AuthService
	chat      *service.ChatService
	documents *service.DocumentService
	locator   *service.LocatorService
	reminders *service.ReminderService
	speech    *service.SpeechService
	tips      *service.TipsService
}

// buildApp opens storage, acquires the shared AI clients and wires the
// services. Optional integrations that fail to initialise are logged and
// left disabled.
func buildApp(ctx context.Context, cfg *config.Config) (*application, error) {
	logger := logutil.GetLogger(ctx)
	sqlDB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	app := &application{db: sqlDB}
	if err := db.ApplyMigrations(ctx, sqlDB); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	userRepo := repo.NewUserRepo(sqlDB)
	docRepo := repo.NewDocumentRepo(sqlDB)
	reminderRepo := repo.NewReminderRepo(sqlDB)
	specialistRepo := repo.NewSpecialistRepo(sqlDB)
	app.embedCache = repo.NewEmbeddingCacheRepo(sqlDB)

	app.shared = appctx.New(cfg, sqlDB, app.embedCache)
	clients, err := app.shared.Acquire(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.sessions, err = session.NewStore(cfg.Session)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}
	files, err := filestore.New(ctx, cfg.FileStore)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	index := rag.NewIndex(clients.Embedder, clients.Vectors, cfg.Ingest.BatchSize,
		rag.WithStoreTimeout(time.Duration(cfg.Retrieval.StoreTimeout)*time.Second))
	ingestor := rag.NewIngestor(rag.NewRecursiveSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap))
	pipeline := rag.NewPipeline(index, rag.NewGenerator(clients.Chat), cfg.Retrieval.TopK)

	app.auth = service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	app.chat = service.NewChatService(pipeline, app.sessions, app.auth)
	app.documents = service.NewDocumentService(service.DocumentServiceDeps{
		Ingestor:    ingestor,
		Index:       index,
		Docs:        docRepo,
		Files:       files,
		Sessions:    app.sessions,
		Chat:        clients.Chat,
		MaxUpload:   cfg.Ingest.MaxUploadSize,
		SummaryTopK: cfg.Retrieval.SummaryTopK,
	})

	if gm, err := locator.NewGoogleMaps(cfg.Maps.APIKey); err != nil {
		logger.Warn("maps disabled, medical help lookup unavailable", zap.Error(err))
		app.locator = service.NewLocatorService(nil, clients.Chat)
	} else {
		app.locator = service.NewLocatorService(locator.New(gm, gm, specialistRepo, cfg.Maps.Radius, cfg.Maps.Limit), clients.Chat)
	}

	app.mailer, err = notify.New(cfg.Mail)
	if err != nil {
		logger.Warn("mail disabled, reminders are stored but not sent", zap.Error(err))
		app.mailer = nil
	}
	app.reminders = service.NewReminderService(reminderRepo, app.mailer)

	if transcriber, err := speech.New(cfg.Speech); err != nil {
		logger.Warn("speech to text disabled", zap.Error(err))
		app.speech = service.NewSpeechService(nil)
	} else {
		app.speech = service.NewSpeechService(transcriber)
	}

	app.tips, err = service.LoadTipsFile(cfg.TipsFile)
	if err != nil {
		logger.Warn("load tips file failed", zap.String("path", cfg.TipsFile), zap.Error(err))
		app.tips = service.NewTipsService(nil)
	}
	return app, nil
}

func (a *application) Close() {
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.Close())
	}
	if a.shared != nil {
		errs = append(errs, a.shared.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logutil.GetLogger(context.Background()).Error("shutdown cleanup failed", zap.Error(err))
	}
}
