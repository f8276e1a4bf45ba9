package main

//go:generate swag init -g cmd/dominod/main.go -o docs

// @title           Domino Monitor API
// @version         0.1.0
// @description     Signal statuses, feed ingestion, digests and predictions.
// @host            localhost:8080
// @BasePath        /
// @schemes         http

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"asymmetricbridge/internal/config"
	cronrunner "asymmetricbridge/internal/cron"
	"asymmetricbridge/internal/db"
	"asymmetricbridge/internal/digest"
	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/feed"
	"asymmetricbridge/internal/handler"
	"asymmetricbridge/internal/llm"
	"asymmetricbridge/internal/logger"
	"asymmetricbridge/internal/notify"
	"asymmetricbridge/internal/prediction"
	"asymmetricbridge/internal/reconcile"
	gormrepository "asymmetricbridge/internal/repository/gorm"
	"asymmetricbridge/internal/scheduler"
	"asymmetricbridge/internal/service"
	"asymmetricbridge/internal/threshold"

	_ "asymmetricbridge/docs"
)

func main() {
	config.LoadDotEnv()
	cfgPath, envOnly := config.PathFromEnv()
	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "dominod")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	catalog := domino.Default()
	if err := catalog.Validate(); err != nil {
		logger.Fatal("invalid domino catalog", zap.Error(err))
	}
	engine := threshold.NewEngine(threshold.DefaultRules())
	if err := engine.Validate(catalog); err != nil {
		logger.Fatal("threshold rules do not match catalog", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	publisher := newPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	feeds := feed.NewStore(cfg.Feeds.RedisURL, cfg.Feeds.SnapshotTTL, logger)
	reconciler := &reconcile.Reconciler{
		Repo:           store,
		Logger:         logger,
		Publisher:      publisher,
		DebounceWindow: cfg.Policy.DebounceWindow,
	}
	evalScheduler := &scheduler.Scheduler{
		Engine:      engine,
		Feeds:       feeds,
		Statuses:    store,
		DataPoints:  store,
		Reconciler:  reconciler,
		Logger:      logger,
		MinInterval: cfg.Policy.MinEvalInterval,
		MaxFeedAge:  cfg.Policy.FeedMaxAge,
	}
	manual := &reconcile.Manual{Repo: store, Catalog: catalog, Logger: logger, Publisher: publisher}

	digestSvc := &digest.Service{
		Statuses:       store,
		History:        store,
		Digests:        store,
		Catalog:        catalog,
		Flags:          settingsSvc,
		Logger:         logger,
		DefaultDays:    cfg.Digest.DefaultDays,
		MaxDays:        cfg.Digest.MaxDays,
		StaleAfterDays: cfg.Policy.StaleAfterDays,
	}
	textGen, err := llm.New(cfg.LLM)
	if err != nil {
		logger.Warn("llm disabled", zap.Error(err))
	} else if textGen != nil {
		digestSvc.AI = &digest.ExternalGenerator{LLM: textGen, MinChars: cfg.Digest.MinAIChars, Logger: logger}
		logger.Info("llm digest generator ready", zap.String("provider", cfg.LLM.Provider))
	}
	predictionSvc := &prediction.Service{
		Repo:       store,
		DataPoints: store,
		Catalog:    catalog,
		Flags:      settingsSvc,
		Logger:     logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.CORSMiddleware())
	router.Use(handler.UserMiddleware(cfg.App.DefaultUser))
	router.Use(handler.WriteAuditMiddleware(logger))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Scheduler: evalScheduler}
	healthHandler.Register(router)
	dominoHandler := &handler.DominoHandler{Repo: store, Catalog: catalog, Manual: manual, Logger: logger}
	dominoHandler.Register(router)
	historyHandler := &handler.HistoryHandler{History: store, DataPoints: store}
	historyHandler.Register(router)
	feedHandler := &handler.FeedHandler{Store: feeds, Engine: engine, Scheduler: evalScheduler, MaxAge: cfg.Policy.FeedMaxAge}
	feedHandler.Register(router)
	digestHandler := &handler.DigestHandler{Service: digestSvc, Repo: store, Logger: logger}
	digestHandler.Register(router)
	predictionHandler := &handler.PredictionHandler{Service: predictionSvc, Repo: store}
	predictionHandler.Register(router)
	settingsHandler := &handler.SettingsHandler{Repo: store, Settings: settingsSvc}
	settingsHandler.Register(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		runner := cronrunner.New(logger, ctx)
		registerJobs(runner, cfg, logger, settingsSvc, evalScheduler, digestSvc, predictionSvc, store)
		runner.Start()
		defer runner.Stop()
	}

	go func() {
		logger.Info("http server started", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func registerJobs(
	runner *cronrunner.Runner,
	cfg config.Config,
	logger *zap.Logger,
	settingsSvc *service.SystemSettingsService,
	evalScheduler *scheduler.Scheduler,
	digestSvc *digest.Service,
	predictionSvc *prediction.Service,
	store *gormrepository.Store,
) {
	add := func(name, spec string, job func(ctx context.Context)) {
		if strings.TrimSpace(spec) == "" {
			return
		}
		if _, err := runner.Add(name, spec, job); err != nil {
			logger.Warn("cron register failed", zap.String("job", name), zap.Error(err))
		}
	}

	add("reconcile", cfg.Cron.Reconcile, func(ctx context.Context) {
		if !settingsSvc.IsEnabled(ctx, service.FeatureReconcile, true) {
			return
		}
		rep, err := evalScheduler.Tick(ctx)
		if err != nil {
			logger.Warn("cron reconcile failed", zap.Error(err))
			return
		}
		if !rep.Ran {
			logger.Debug("cron reconcile not run", zap.String("reason", rep.NotRun))
			return
		}
		applied, skipped, failed := 0, 0, len(rep.Errors)
		for _, out := range rep.Outcomes {
			applied += out.Applied
			skipped += out.Skipped
			failed += len(out.Errors)
		}
		logger.Info("cron reconcile ok",
			zap.Strings("sources", rep.Sources),
			zap.Int("evaluated", rep.Evaluated),
			zap.Int("users", len(rep.Outcomes)),
			zap.Int("applied", applied),
			zap.Int("skipped", skipped),
			zap.Int("errors", failed),
		)
	})

	add("digest", cfg.Cron.Digest, func(ctx context.Context) {
		n, err := digestSvc.RunScheduled(ctx)
		if err != nil {
			logger.Warn("cron digest failed", zap.Error(err))
			return
		}
		logger.Info("cron digest ok", zap.Int("digests", n))
	})

	add("prediction_scoring", cfg.Cron.PredictionScoring, func(ctx context.Context) {
		rep, err := predictionSvc.ScoreDue(ctx)
		if err != nil {
			logger.Warn("cron prediction scoring failed", zap.Error(err))
			return
		}
		if rep.Scored > 0 || len(rep.Errors) > 0 {
			logger.Info("cron prediction scoring ok",
				zap.Int("scored", rep.Scored),
				zap.Int("skipped", rep.Skipped),
				zap.Int("errors", len(rep.Errors)),
			)
		}
	})

	add("data_point_prune", cfg.Cron.DataPointPrune, func(ctx context.Context) {
		if cfg.Policy.DataPointMaxAge <= 0 || !settingsSvc.IsEnabled(ctx, service.FeatureDataPointPrune, true) {
			return
		}
		cutoff := time.Now().UTC().Add(-cfg.Policy.DataPointMaxAge)
		n, err := store.DeleteSignalDataPointsBefore(ctx, cutoff)
		if err != nil {
			logger.Warn("cron data point prune failed", zap.Error(err))
			return
		}
		logger.Info("cron data point prune ok", zap.Int64("deleted", n), zap.Time("before", cutoff))
	})
}

func newPublisher(cfg config.KafkaConfig, logger *zap.Logger) notify.Publisher {
	if !cfg.Enabled {
		return notify.Nop{}
	}
	p, err := notify.NewKafkaPublisher(cfg.Brokers, cfg.Topic, cfg.ClientID, logger)
	if err != nil {
		logger.Warn("kafka publisher unavailable, transitions will not be published", zap.Error(err))
		return notify.Nop{}
	}
	logger.Info("kafka publisher ready", zap.String("topic", cfg.Topic))
	return p
}
