package main

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

	"github.com/urfave/cli/v2"

	"github.com/kce-spotlight/console/internal/config"
	"github.com/kce-spotlight/console/internal/database"
	"github.com/kce-spotlight/console/internal/logging"
	"github.com/kce-spotlight/console/internal/server"
	"github.com/kce-spotlight/console/web"
)

// auditKeep is how many audit events the hourly cleanup retains.
const auditKeep = 10000

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "spotlight:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "spotlight",
		Usage: "Admin console for the student rewards backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				EnvVars: []string{"SPOTLIGHT_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the console web server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and report the schema version",
				Action: migrate,
			},
			{
				Name:      "export",
				Usage:     "Write a management table to an xlsx file",
				ArgsUsage: "<submissions|rewards|point-rules|staff|semesters>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default: the table's file name)"},
					&cli.StringFlag{Name: "token", Usage: "backend bearer token", EnvVars: []string{"SPOTLIGHT_TOKEN"}, Required: true},
					&cli.StringFlag{Name: "search", Usage: "only rows matching this search"},
				},
				Action: exportCmd,
			},
		},
	}
}

// load reads the configuration and applies the command's own check.
func load(c *cli.Context, check func(config.Config) error) (config.Config, *slog.Logger, error) {
	cfg, err := config.Read(c.String("config"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if check != nil {
		if err := check(cfg); err != nil {
			return config.Config{}, nil, fmt.Errorf("load config: %w", err)
		}
	}
	return cfg, logging.Setup(cfg.LogLevel), nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := load(c, config.Config.Validate)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(cfg, db, web.FS, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanup(ctx, srv, logging.Component(logger, "cleanup"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("spotlight running", "addr", "http://localhost:"+cfg.Port, "backend", cfg.Backend.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// cleanup removes expired sessions, idle rate limit windows and old audit
// events once an hour.
func cleanup(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		sessions, err := srv.Sessions().Cleanup()
		if err != nil {
			logger.Error("clean sessions", "error", err)
		}
		windows := srv.RateLimiter().Cleanup()
		audit, err := srv.AuditStore().Prune(auditKeep)
		if err != nil {
			logger.Error("prune audit", "error", err)
		}
		logger.Debug("cleanup", "sessions", sessions, "rate_windows", windows, "audit", audit)
	}
}

func migrate(c *cli.Context) error {
	cfg, logger, err := load(c, nil)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	v, err := database.Version(db)
	if err != nil {
		return err
	}
	logger.Info("database migrated", "path", cfg.DBPath, "version", v)
	return nil
}
