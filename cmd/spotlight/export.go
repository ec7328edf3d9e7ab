package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/auth"
	"github.com/kce-spotlight/console/internal/config"
	"github.com/kce-spotlight/console/internal/export"
	"github.com/kce-spotlight/console/internal/logging"
	"github.com/kce-spotlight/console/internal/resource"
)

type exporter func(ctx context.Context, api *apiclient.Client, cfg config.Config, search string) (*export.File, error)

var exporters = map[string]exporter{
	"submissions": func(ctx context.Context, api *apiclient.Client, cfg config.Config, search string) (*export.File, error) {
		return buildTable(ctx, cfg, "submissions", api.ListSubmissions, export.Submissions, search)
	},
	"rewards": func(ctx context.Context, api *apiclient.Client, cfg config.Config, search string) (*export.File, error) {
		return buildTable(ctx, cfg, "rewards", api.ListRewards, export.Rewards, search)
	},
	"point-rules": func(ctx context.Context, api *apiclient.Client, cfg config.Config, search string) (*export.File, error) {
		return buildTable(ctx, cfg, "point-rules", api.ListPointRules, export.PointRules, search)
	},
	"staff": func(ctx context.Context, api *apiclient.Client, cfg config.Config, search string) (*export.File, error) {
		return buildTable(ctx, cfg, "staff", api.ListStaff, export.Staff, search)
	},
	"semesters": func(ctx context.Context, api *apiclient.Client, cfg config.Config, search string) (*export.File, error) {
		return buildTable(ctx, cfg, "semesters", api.ListSemesters, export.Semesters, search)
	},
}

func buildTable[T any](ctx context.Context, cfg config.Config, name string, fetch resource.Fetcher[T], table export.Table[T], search string) (*export.File, error) {
	c := resource.New(resource.Config[T]{
		Name:        name,
		Fetch:       fetch,
		Key:         func(T) string { return "" },
		Limit:       cfg.List.PageSize,
		ExportLimit: cfg.List.ExportLimit,
	})
	c.SetSearch(search)
	records, err := c.Export(ctx)
	if err != nil {
		return nil, err
	}
	return table.Build(records)
}

func exportCmd(c *cli.Context) error {
	name := c.Args().First()
	run, ok := exporters[name]
	if !ok {
		return fmt.Errorf("unknown resource %q", name)
	}
	cfg, logger, err := load(c, config.Config.ValidateClient)
	if err != nil {
		return err
	}

	api := apiclient.NewClient(cfg.Backend.BaseURL,
		apiclient.WithClientID(cfg.Backend.ClientID),
		apiclient.WithTunnelWarning(cfg.Backend.SkipTunnelWarning),
		apiclient.WithLogger(logging.Component(logger, "apiclient")),
	)
	ctx := auth.WithAuth(c.Context, auth.AuthContext{BackendToken: c.String("token")})

	file, err := run(ctx, api, cfg, c.String("search"))
	if errors.Is(err, export.ErrEmpty) {
		logger.Info("nothing to export", "resource", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}

	out := c.String("out")
	if out == "" {
		out = file.Name
	}
	if err := os.WriteFile(out, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	key, err := export.NewArchive(cfg.S3, logger).Store(ctx, file)
	if err != nil {
		logger.Warn("archive export", "error", err)
	}
	logger.Info("exported", "resource", name, "file", out, "bytes", len(file.Data), "archive", key)
	return nil
}
