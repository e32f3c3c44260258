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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vnkhanh/koru-backend/cache"
	"github.com/vnkhanh/koru-backend/config"
	"github.com/vnkhanh/koru-backend/controllers"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/middleware"
	"github.com/vnkhanh/koru-backend/parser"
	"github.com/vnkhanh/koru-backend/repository"
	"github.com/vnkhanh/koru-backend/routes"
	"github.com/vnkhanh/koru-backend/services"
	"github.com/vnkhanh/koru-backend/utils"
	"github.com/vnkhanh/koru-backend/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	log.Info("database connected and migrated")

	rdb := config.OpenRedis(cfg)
	var (
		guests services.ExplanationCache
		trial  middleware.TrialConsumer
	)
	if rdb != nil {
		defer rdb.Close()
		guests = cache.NewGuestCache(rdb, config.TTLDuration(cfg.Redis.GuestTTL, cache.DefaultGuestTTL))
		trial = cache.NewTrialLimiter(rdb, config.TTLDuration(cfg.Redis.TrialTTL, cache.DefaultTrialTTL))
	} else {
		log.Warn("REDIS_ADDR is not set, guest trial and guest cache are disabled")
	}

	gateway, err := services.NewGeminiGateway(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
	if err != nil {
		return err
	}
	defer gateway.Close()

	var store utils.ObjectStore
	if c := utils.NewStorageClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey); c != nil {
		store = c
	} else {
		log.Warn("Supabase storage is not configured, quiz sharing is disabled")
	}
	exporter := utils.NewQuizExporter(store, cfg.Supabase.URL)

	hub := ws.NewHub(log)
	historyRepo := repository.NewHistoryRepo(db, log)
	quizRepo := repository.NewQuizRepo(db, log)
	p := parser.New()
	learning := services.NewLearningService(services.LearningDeps{
		Generator: gateway,
		Parser:    p,
		History:   historyRepo,
		Quizzes:   quizRepo,
		Guests:    guests,
		Trial:     trial,
		Events:    hub,
		Log:       log,
	})

	router := routes.SetupRouter(gin.New(), routes.Deps{
		Log:         log,
		Verifier:    middleware.NewTokenVerifier(cfg.Supabase.JWTSecret),
		Trial:       trial,
		Hub:         hub,
		CORSOrigins: cfg.Server.CORSOrigins,
		Gemini:      controllers.NewGeminiHandler(log, gateway),
		Learning:    controllers.NewLearningHandler(log, learning),
		History:     controllers.NewHistoryHandler(log, historyRepo, p, hub),
		Quizzes:     controllers.NewQuizHandler(log, quizRepo, exporter),
		Health:      controllers.NewHealthHandler(db, rdb, gateway, hub),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server running", "port", cfg.Server.Port, "env", cfg.Server.Env, "model", gateway.Model())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return utils.StartCleanupJob(gctx, historyRepo, repository.MaxHistoryKept, utils.DefaultCleanupInterval, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
