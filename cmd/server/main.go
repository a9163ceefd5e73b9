package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"encoder-pipeline/api/rest/routes"
	"encoder-pipeline/config"
	"encoder-pipeline/core/logging"
	"encoder-pipeline/core/monitoring"
	"encoder-pipeline/core/notification"
	"encoder-pipeline/core/repository"
	"encoder-pipeline/core/signals"

	"github.com/gorilla/mux"
	flag "github.com/spf13/pflag"
)

func main() {
	settings := flag.String("settings", "", "YAML settings file (defaults to $"+config.EnvSettingsFile+")")
	flag.Parse()

	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)
	slog.SetDefault(logger)

	if err := run(*settings, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(settingsPath string, logger *slog.Logger) error {
	cfg, err := config.Load(settingsPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.MigrateUp(db); err != nil {
		return err
	}
	logger.Info("database connected successfully")

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Signal listeners
	dispatcher := signals.NewDispatcher()
	tracker := monitoring.NewSignalTracker()
	jobMonitor := monitoring.NewJobMonitor(jobRepo, cfg.Monitor.StaleAfter, logger)
	dispatcher.Subscribe(tracker)
	dispatcher.Subscribe(jobMonitor)
	go jobMonitor.Start(ctx)

	service := notification.NewService(
		jobRepo,
		dispatcher,
		&notification.HTTPConfirmer{Client: &http.Client{Timeout: 30 * time.Second}},
		operatorNotifier(cfg.Admin, logger),
		logger,
	)

	r := mux.NewRouter()
	routes.SetupRoutes(r, routes.Dependencies{
		EndpointPath:  cfg.Transcoder.EndpointPath,
		Notifications: service,
		Jobs:          jobRepo,
		Events:        eventRepo,
		Metrics:       monitoring.NewMetricsExporter(jobRepo, tracker),
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "endpoint", cfg.Transcoder.EndpointPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

func operatorNotifier(admin config.AdminConfig, logger *slog.Logger) notification.OperatorNotifier {
	if admin.SMTPAddr == "" || len(admin.Emails) == 0 {
		return &notification.LogNotifier{Logger: logger}
	}
	return notification.NewSMTPNotifier(admin.SMTPAddr, admin.SMTPUser, admin.SMTPPassword, admin.From, admin.Emails)
}
