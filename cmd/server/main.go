// Package main is the entry point for the social-ledger server.
//
// main stays minimal: it loads configuration, builds the logger and hands
// off to internal/server. Two commands are available:
//
//	server serve   [--port 8080] [--database-url data/social.db]
//	server migrate [--database-url postgres://...]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sakif/social-ledger/internal/config"
	"github.com/sakif/social-ledger/internal/repository/postgres"
	"github.com/sakif/social-ledger/internal/server"
)

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "database-url",
		Usage: "SQLite path or postgres:// URL, overrides DATABASE_URL",
	}
}

func main() {
	app := &cli.App{
		Name:  "social-ledger",
		Usage: "users, posts and an append-only like ledger over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before the environment; a missing file is ignored",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP server",
				Flags: []cli.Flag{
					databaseURLFlag(),
					&cli.IntFlag{
						Name:  "port",
						Usage: "listen port, overrides PORT",
					},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply PostgreSQL schema migrations and exit",
				Flags:  []cli.Flag{databaseURLFlag()},
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies, in increasing precedence: defaults, .env, environment,
// command-line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return config.Config{}, err
	}
	return cfg.WithOverrides(c.Int("port"), c.String("database-url")), nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	if cfg.UsesInsecureSecret() {
		logger.Warn("TOKEN_SECRET is not set; using the insecure development secret")
	}

	srv, err := server.New(c.Context, cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	if cfg.DatabaseDriver != config.DriverPostgres {
		logger.Info("SQLite creates its schema on open; nothing to migrate",
			slog.String("database", cfg.DatabaseURL))
		return nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}
