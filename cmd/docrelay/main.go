// Command docrelay compresses blobs and stores them in a SharePoint document
// library. It runs as an Azure Functions custom handler (serve) or relays
// local files directly (push).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/docrelay/pkg/config"
	"github.com/dmitrymomot/docrelay/pkg/logger"
	"github.com/dmitrymomot/docrelay/pkg/relay"
)

const serviceName = "docrelay"

func newApp() *cli.App {
	return &cli.App{
		Name:  serviceName,
		Usage: "Compress blobs and upload them to a SharePoint document library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Dotenv file loaded before configuration is read",
				Value:   ".env",
				EnvVars: []string{"ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Deployment environment (development, staging, production)",
				Value:   logger.EnvProduction,
				EnvVars: []string{"APP_ENV"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Minimum log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: loadEnvFile,
		Commands: []*cli.Command{
			serveCommand(),
			pushCommand(),
			inspectCommand(),
		},
	}
}

func main() {
	app := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFile loads the dotenv file when it exists. Variables already set in
// the process environment win.
func loadEnvFile(c *cli.Context) error {
	path := c.String("env-file")
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return config.LoadEnv(path)
}

// newLogger builds the process logger. Flags are parsed before the dotenv
// file is loaded, so values the file supplies are read back from the
// environment here.
func newLogger(c *cli.Context) *slog.Logger {
	log := logger.New(
		logger.WithEnvironment(flagOrEnv(c, "env", "APP_ENV"), serviceName),
		logger.WithLevelName(flagOrEnv(c, "log-level", "LOG_LEVEL")),
		logger.WithContextExtractors(relay.InvocationIDExtractor),
	)
	logger.SetAsDefault(log)
	return log
}

func flagOrEnv(c *cli.Context, flag, key string) string {
	if !c.IsSet(flag) {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
	}
	return c.String(flag)
}
