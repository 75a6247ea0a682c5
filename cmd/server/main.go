package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/autokat/backend/internal/admin"
	"github.com/autokat/backend/internal/api"
	"github.com/autokat/backend/internal/config"
	"github.com/autokat/backend/internal/database"
	"github.com/autokat/backend/internal/game"
	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/highscores"
	"github.com/autokat/backend/internal/logger"
	"github.com/autokat/backend/internal/migrations"
	"github.com/autokat/backend/internal/redis"
	"github.com/autokat/backend/internal/tracking"
	"github.com/autokat/backend/internal/ws"
)

const calibrationKey = "autokat:calibration"

func main() {
	// Initialize configuration (loads .env if present)
	cfg := config.Load()

	if err := logger.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	log := logger.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tuning, err := game.LoadTuning(cfg.TuningFile)
	if err != nil {
		log.Warnf("[GAME] Using default tuning: %v", err)
	}

	// Database is optional; without it scores go to a file and audit is off.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Info("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations", log); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	}

	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	}

	screen := geom.V(float64(cfg.ScreenWidth), float64(cfg.ScreenHeight))

	var calibrationStore tracking.CalibrationStore = tracking.NewFileCalibrationStore(cfg.CalibrationFile)
	if cfg.CalibrationStore == "redis" {
		if rdb == nil {
			log.Fatal("CALIBRATION_STORE=redis requires REDIS_URL")
		}
		calibrationStore = tracking.NewRedisCalibrationStore(rdb, calibrationKey)
	}
	calibration := tracking.LoadCalibration(ctx, calibrationStore, screen, log)
	tracker := tracking.NewTracker(screen, calibration, calibrationStore, log)

	var scoreStore highscores.Store = highscores.NewFileStore(cfg.HighscoresFile)
	if cfg.HighscoreStore == "postgres" {
		if db == nil {
			log.Fatal("HIGHSCORE_STORE=postgres requires DATABASE_URL")
		}
		scoreStore = highscores.NewPostgresStore(db)
	}
	board := highscores.NewBoard(ctx, scoreStore, log)

	auth := admin.NewAuthenticator(db, cfg.OperatorTokenHash, cfg.JWTSecret,
		time.Duration(cfg.SessionTimeoutMin)*time.Minute, log)
	var audit api.Audit
	var wsAudit ws.Auditor
	if db != nil {
		a := admin.NewAuditor(db)
		audit, wsAudit = a, a
	}

	hub := ws.NewHub(ws.NewCommands(tracker, wsAudit, cfg.AllowManualPointer, log), log)
	broadcasters := []game.Broadcaster{hub}
	var publisher *ws.RedisPublisher
	if rdb != nil {
		publisher = ws.NewRedisPublisher(rdb, cfg.StateChannel, 0, log)
		broadcasters = append(broadcasters, publisher)
		ws.StartDetectionSubscriber(ctx, rdb, cfg.DetectionChannel, tracker, log)
	}

	env := game.NewEnv(screen, tuning, board, rand.New(rand.NewSource(time.Now().UnixNano())), log)
	loop := game.NewLoop(game.NewGame(env, tracker),
		time.Duration(cfg.TickIntervalMs)*time.Millisecond, &game.LoopMetrics{}, log, broadcasters...)

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Log:     log,
		Loop:    loop,
		Hub:     hub,
		Tracker: tracker,
		Board:   board,
		Auth:    auth,
		Audit:   audit,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return loop.Run(gctx) })
	if publisher != nil {
		g.Go(func() error { return publisher.Run(gctx) })
	}
	g.Go(func() error {
		log.Infof("Starting autokat server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Server stopped with error: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	log.Info("Server stopped")
}
