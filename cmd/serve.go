package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausops/mstodo/internal/auth"
	"github.com/hausops/mstodo/internal/bridge"
	"github.com/hausops/mstodo/internal/config"
	"github.com/hausops/mstodo/internal/server"
	"github.com/hausops/mstodo/internal/todo"
)

const requestTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		listenAddr     string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge",
		Long: `Start the bridge: poll the Microsoft To Do lists of the authorized
account, publish them as entities, and serve the HTTP API.

Configuration comes from environment variables:
  MSTODO_CLIENT_ID      OAuth2 application (client) ID (required)
  MSTODO_CLIENT_SECRET  OAuth2 client secret (required)
  MSTODO_EXTERNAL_URL   externally reachable base URL, used to derive the
                        authorization redirect URI (default http://localhost:8123)
  MSTODO_TOKEN_FILE     token file path (default $XDG_CONFIG_HOME/mstodo/token.json)
  MSTODO_TIMEZONE       IANA zone for due dates and reminders (default TZ or UTC)
  MSTODO_SCAN_INTERVAL  entity poll interval (default 15m)
  MSTODO_SENSOR_LISTS   comma-separated list names that get a count sensor

On first start the bridge logs an authorization URL; opening it and
granting access completes the setup through the callback endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(debugMode, listenAddr, metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "HTTP listen address. Can also use MSTODO_LISTEN_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server address. Can also use MSTODO_METRICS_ADDR env var.")

	return cmd
}

func runServe(debugMode bool, listenAddr string, metricsEnabled bool, metricsAddr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if listenAddr == "" {
		listenAddr = cfg.ListenAddr
	}
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(config.DefaultConfigDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	store := auth.NewStore(cfg.TokenPath)
	session, err := auth.NewSession(
		auth.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL(),
		},
		store,
		auth.WithLogger(log),
		auth.WithHTTPClient(&http.Client{
			Transport: &todo.RetryTransport{},
			Timeout:   requestTimeout,
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	br := bridge.New(bridge.Config{
		Session:     session,
		Interval:    cfg.ScanInterval,
		Location:    loc,
		SensorLists: cfg.SensorLists,
		Logger:      log,
		ClientOptions: []todo.ClientOption{
			todo.WithTimeZone(cfg.TimeZone),
			todo.WithClientLogger(log),
		},
	})

	srv := server.New(server.Config{
		Addr:    listenAddr,
		Session: session,
		Bridge:  br,
		Logger:  log,
	})

	errCh := make(chan error, 3)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if metricsEnabled {
		metricsServer = server.NewMetricsServer(metricsAddr)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	go func() {
		if err := br.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("bridge failed: %w", err)
		}
	}()

	log.Info("bridge started",
		slog.String("listen_addr", listenAddr),
		slog.String("redirect_url", cfg.RedirectURL()),
		slog.String("auth_state", session.State().String()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		cancel()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", slog.Any("error", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
	return nil
}
