package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/docrelay/pkg/blob"
	"github.com/dmitrymomot/docrelay/pkg/config"
	"github.com/dmitrymomot/docrelay/pkg/httpserver"
	"github.com/dmitrymomot/docrelay/pkg/logger"
	"github.com/dmitrymomot/docrelay/pkg/metrics"
	"github.com/dmitrymomot/docrelay/pkg/relay"
	"github.com/dmitrymomot/docrelay/pkg/trigger"
)

// serveConfig holds the process-wide settings. Relay settings are not part of
// it: they are loaded again for every invocation.
type serveConfig struct {
	HTTP    httpserver.Config
	Trigger trigger.Config
	Blob    blob.Config
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the Functions custom handler",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "metrics",
				Usage:   "Expose Prometheus metrics on GET /metrics",
				Value:   true,
				EnvVars: []string{"METRICS_ENABLED"},
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	log := newLogger(c)
	ctx := c.Context

	var cfg serveConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := relay.NewService(relay.LoadConfig, nil,
		relay.WithLogger(log),
		relay.WithRecorder(metrics.New(reg)),
	)

	source, err := blob.FromConfig(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	if source != nil {
		log.InfoContext(ctx, "blob source enabled", logger.Component(cfg.Blob.Kind))
	}

	router := trigger.New(svc, cfg.Trigger,
		trigger.WithLogger(log),
		trigger.WithSource(source),
		trigger.WithReadinessCheck(relayReady),
	).Router()
	if c.Bool("metrics") {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}

// relayReady passes when relay configuration loads and the scratch directory
// exists.
func relayReady(context.Context) error {
	cfg, err := relay.LoadConfig()
	if err != nil {
		return err
	}
	st, err := os.Stat(cfg.ScratchDir)
	if err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("scratch dir %s is not a directory", cfg.ScratchDir)
	}
	return nil
}
