package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/carservice-desk/internal/api/router"
	"github.com/wolfman30/carservice-desk/internal/app/bootstrap"
	"github.com/wolfman30/carservice-desk/internal/appointments"
	appconfig "github.com/wolfman30/carservice-desk/internal/config"
	"github.com/wolfman30/carservice-desk/internal/dialog"
	"github.com/wolfman30/carservice-desk/internal/http/handlers"
	"github.com/wolfman30/carservice-desk/internal/observability/metrics"
	"github.com/wolfman30/carservice-desk/internal/temporal"
	"github.com/wolfman30/carservice-desk/internal/webchat"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting carservice-desk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"anchor_date", cfg.AnchorDate,
	)

	ctx := context.Background()
	app, err := buildApplication(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if app.sessions.Memory != nil {
		if err := app.sessions.Memory.Start(cfg.SessionSweepInterval); err != nil {
			logger.Error("failed to start session sweeper", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.sessions.Memory != nil {
		app.sessions.Memory.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type application struct {
	handler  http.Handler
	sessions bootstrap.SessionBackend
	closers  []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApplication wires stores, the dialog engine and the HTTP surface. Postgres,
// Redis and speech are each optional and fall back to in-process equivalents.
func buildApplication(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) (*application, error) {
	app := &application{}

	clock, loc, err := bootstrap.BuildClock(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := bootstrap.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		app.closers = append(app.closers, pool.Close)
	}
	sqlDB := bootstrap.OpenSQL(pool)
	if sqlDB != nil {
		app.closers = append(app.closers, func() { _ = sqlDB.Close() })
	}
	if err := bootstrap.Migrate(sqlDB, cfg, logger); err != nil {
		app.close()
		return nil, err
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	app.sessions = bootstrap.BuildSessionStore(cfg, redisClient, logger)

	transcriber, err := bootstrap.BuildTranscriber(ctx, cfg, logger)
	if err != nil {
		// Text turns still work without speech.
		logger.Warn("speech disabled", "error", err)
		transcriber = nil
	}
	if closer, ok := transcriber.(io.Closer); ok {
		app.closers = append(app.closers, func() { _ = closer.Close() })
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	dialogMetrics := metrics.NewDialogMetrics(reg)

	service := appointments.NewService(bootstrap.BuildAppointmentStore(pool, logger), logger, dialogMetrics)
	machine := dialog.NewMachine(temporal.NewResolver(clock, loc), service, logger).
		WithBusinessName(cfg.BusinessName)
	engine := dialog.NewEngine(machine, app.sessions.Store, logger).WithMetrics(dialogMetrics)

	routerCfg := &router.Config{
		Logger:             logger,
		Conversation:       handlers.NewConversationHandler(engine, transcriber, logger),
		Appointments:       handlers.NewAppointmentsHandler(service, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	if convLog := bootstrap.BuildConversationLog(sqlDB, cfg, logger); convLog != nil {
		engine.WithRecorder(convLog)
		routerCfg.Transcripts = handlers.NewTranscriptHandler(convLog, logger)
		routerCfg.WebChat = webchat.NewHandler(engine, convLog, logger)
	} else {
		routerCfg.WebChat = webchat.NewHandler(engine, nil, logger)
	}

	app.handler = router.New(routerCfg)
	return app, nil
}
