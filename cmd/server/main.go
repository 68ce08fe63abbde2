package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/campus-events/internal/config"
	"github.com/iliyamo/campus-events/internal/database"
	"github.com/iliyamo/campus-events/internal/handler"
	"github.com/iliyamo/campus-events/internal/logger"
	"github.com/iliyamo/campus-events/internal/mailer"
	"github.com/iliyamo/campus-events/internal/middleware"
	"github.com/iliyamo/campus-events/internal/queue"
	"github.com/iliyamo/campus-events/internal/registration"
	"github.com/iliyamo/campus-events/internal/repository"
	"github.com/iliyamo/campus-events/internal/router"
	queue_publisher "github.com/iliyamo/campus-events/internal/service"
	"github.com/iliyamo/campus-events/internal/stats"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)
	log.Info("starting campus events", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("failed to open database", logger.Err(err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("failed to migrate database", logger.Err(err))
			os.Exit(1)
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	regs := repository.NewRegistrationRepo(db)
	feedback := repository.NewFeedbackRepo(db)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.Error("failed to seed admin", logger.Err(err))
			os.Exit(1)
		}
		if created {
			log.Info("admin account created", slog.String("email", cfg.AdminEmail))
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	regCfg, err := config.LoadRegistrationConfig()
	if err != nil {
		log.Error("failed to load registration config", logger.Err(err))
		os.Exit(1)
	}
	statsCfg, err := config.LoadStatsConfig()
	if err != nil {
		log.Error("failed to load stats config", logger.Err(err))
		os.Exit(1)
	}
	mailCfg, err := config.LoadMailConfig()
	if err != nil {
		log.Error("failed to load mail config", logger.Err(err))
		os.Exit(1)
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	publisher := queue_publisher.New(cfg.AMQPURL, cfg.NoticeQueue, log)
	engine := registration.NewEngine(regs, events, registration.RandomCodes{}, publisher, log, registration.Config{
		OpTimeout:     regCfg.OpTimeout,
		MaxAttempts:   regCfg.MaxAttempts,
		RetryBackoff:  regCfg.RetryBackoff,
		NotifyTimeout: regCfg.NotifyTimeout,
	})

	statsSvc := stats.NewService(regs, events, events, feedback, users,
		stats.NewCache(rdb, statsCfg.CacheTTL, statsCfg.Prefix), log)
	sched, err := stats.StartScheduler(log,
		statsSvc.RefreshJob(statsCfg.RefreshInterval),
		stats.Job{
			Name:  "refresh-token-purge",
			Every: statsCfg.TokenPurgeEvery,
			Run: func(ctx context.Context) error {
				n, err := tokens.PurgeExpired(ctx, time.Now().UTC())
				if err == nil && n > 0 {
					log.Info("purged refresh tokens", slog.Int64("count", n))
				}
				return err
			},
		},
	)
	if err != nil {
		log.Error("failed to start scheduler", logger.Err(err))
		os.Exit(1)
	}

	processor := queue.NewProcessor(users, mailer.New(mailCfg, log), mailCfg.AdminEmail, log)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		_ = queue.StartRegistrationConsumer(ctx, cfg.AMQPURL, cfg.NoticeQueue, processor.Handle, log)
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))

	invalidate := func(ctx context.Context) error { return middleware.InvalidateCache(ctx, cacheCfg, rdb) }
	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	eventH := handler.NewEventHandler(events, statsSvc, invalidate, log)
	regH := handler.NewRegistrationHandler(engine, statsSvc, log)
	fbH := handler.NewFeedbackHandler(feedback, events, statsSvc, log)
	statsH := handler.NewStatsHandler(statsSvc, log)

	router.RegisterRoutes(e, handler.Ready(db, rdb))
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, eventH, regH, middleware.NewRedisCache(cacheCfg, rdb, log))
	router.RegisterParticipant(e, regH, fbH, cfg.JWTSecret, middleware.NewTokenBucket(rateCfg, rdb, log))
	router.RegisterStaff(e, eventH, regH, fbH, statsH, cfg.JWTSecret)
	router.RegisterAdmin(e, eventH, statsH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}
	if err := sched.Shutdown(); err != nil {
		log.Error("scheduler shutdown failed", logger.Err(err))
	}
	engine.Wait()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("consumer did not stop in time")
	}
	log.Info("stopped")
}
