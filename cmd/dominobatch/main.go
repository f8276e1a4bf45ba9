package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"asymmetricbridge/internal/config"
	"asymmetricbridge/internal/db"
	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/logger"
	"asymmetricbridge/internal/notify"
	"asymmetricbridge/internal/reconcile"
	gormrepository "asymmetricbridge/internal/repository/gorm"
	"asymmetricbridge/internal/scheduler"
	"asymmetricbridge/internal/service"
	"asymmetricbridge/internal/threshold"
)

// dominobatch replays the newest stored reading of every signal through the
// threshold rules and reconciles all users once, then exits.
func main() {
	os.Exit(run())
}

func run() int {
	seedUser := flag.String("seed", "", "seed missing statuses for this user before the replay")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	config.LoadDotEnv()
	cfgPath, envOnly := config.PathFromEnv()
	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "dominobatch")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	catalog := domino.Default()
	engine := threshold.NewEngine(threshold.DefaultRules())
	if err := engine.Validate(catalog); err != nil {
		logger.Fatal("threshold rules do not match catalog", zap.Error(err))
	}
	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if !settingsSvc.IsEnabled(ctx, service.FeatureReconcile, true) {
		logger.Info("reconcile switch is off, nothing to do")
		return 0
	}

	if *seedUser != "" {
		n, err := reconcile.Seed(ctx, store, catalog, *seedUser, time.Now().UTC())
		if err != nil {
			logger.Fatal("seed failed", zap.String("user_id", *seedUser), zap.Error(err))
		}
		logger.Info("seeded statuses", zap.String("user_id", *seedUser), zap.Int64("created", n))
	}

	var publisher notify.Publisher = notify.Nop{}
	if cfg.Kafka.Enabled {
		p, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, logger)
		if err != nil {
			logger.Warn("kafka publisher unavailable", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	batch := &scheduler.Batch{
		Engine:     engine,
		DataPoints: store,
		Statuses:   store,
		Reconciler: &reconcile.Reconciler{
			Repo:           store,
			Logger:         logger,
			Publisher:      publisher,
			DebounceWindow: cfg.Policy.DebounceWindow,
		},
		Logger: logger,
	}
	rep, err := batch.Run(ctx)
	if err != nil {
		logger.Error("batch run failed", zap.Error(err))
		return 1
	}

	evaluated := 0
	for _, r := range rep.Results {
		if r.Evaluated {
			evaluated++
		}
	}
	failed := len(rep.Errors)
	for user, out := range rep.Outcomes {
		failed += len(out.Errors)
		logger.Info("batch user reconciled",
			zap.String("user_id", user),
			zap.Int("applied", out.Applied),
			zap.Int("skipped", out.Skipped),
			zap.Int("errors", len(out.Errors)),
		)
	}
	logger.Info("batch complete",
		zap.Int("points", rep.Points),
		zap.Int("evaluated", evaluated),
		zap.Int("users", len(rep.Outcomes)),
		zap.Int("errors", failed),
	)
	if failed > 0 {
		return 1
	}
	return 0
}
