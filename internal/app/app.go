// Package app wires configuration, the NATS connection and the JetStream
// engine together for the CLI commands.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shubhamrasal/jsq/internal/config"
	"github.com/shubhamrasal/jsq/internal/jetstream"
	"github.com/shubhamrasal/jsq/internal/metrics"
	"github.com/shubhamrasal/jsq/internal/natsconn"
)

// App holds the connected runtime shared by all CLI commands.
type App struct {
	Config   *config.Config
	Client   *natsconn.Client
	JS       *jetstream.JetStream
	Registry *prometheus.Registry
}

// New loads configuration, connects to NATS and initializes the JetStream
// engine. Initialization fails if the server has no JetStream available.
func New(serverURL, configPath string, verbose bool) (*App, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath, serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cfg.CurrentContext()
	if ctx == nil {
		return nil, fmt.Errorf("no connection context configured")
	}

	client, err := natsconn.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	opts := []jetstream.Option{
		jetstream.WithLogger(logger),
		jetstream.WithRequestTimeout(ctx.RequestTimeout()),
		jetstream.WithMetrics(metrics.New(registry)),
	}
	if ctx.Prefix != "" {
		opts = append(opts, jetstream.WithAPIPrefix(ctx.Prefix))
	}

	js, err := jetstream.New(client.Conn(), opts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	return &App{
		Config:   cfg,
		Client:   client,
		JS:       js,
		Registry: registry,
	}, nil
}

// Close releases the NATS connection.
func (a *App) Close() {
	if a.Client != nil {
		a.Client.Close()
	}
}
