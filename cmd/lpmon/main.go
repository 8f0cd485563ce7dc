package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/lpmon/internal/api"
	"github.com/mtlprog/lpmon/internal/config"
	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/export"
	"github.com/mtlprog/lpmon/internal/logger"
	"github.com/mtlprog/lpmon/internal/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "lpmon",
		Usage: "liquidity position portfolio monitor",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the scheduler and the HTTP API",
				Action: withApp(serve),
			},
			{
				Name:      "portfolio",
				Usage:     "print a wallet portfolio as JSON",
				ArgsUsage: "<wallet-id>",
				Action:    withApp(printPortfolio),
			},
			{
				Name:      "prices",
				Usage:     "look up token prices",
				ArgsUsage: "<mint...>",
				Action:    withApp(printPrices),
			},
			{
				Name:      "run-task",
				Usage:     "run one scheduled task immediately",
				ArgsUsage: "<task-name>",
				Action:    withApp(runTask),
			},
			{
				Name:  "export",
				Usage: "write the current portfolios to an XLSX workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "lp_portfolio.xlsx", Usage: "output file"},
				},
				Action: withApp(exportXLSX),
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// withApp sets up logging and services before running a command.
func withApp(run func(c *cli.Context, a *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := config.Load()

		log, sync, err := logger.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		defer func() { _ = sync() }()
		slog.SetDefault(log)

		a, err := newApp(c.Context, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		return run(c, a)
	}
}

func serve(c *cli.Context, a *app) error {
	ctx := c.Context

	sched := scheduler.New(a.tasks())
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	if a.cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, admin endpoints are unprotected")
	}

	srv := api.NewServer(api.ServerConfig{
		Port:        a.cfg.HTTPPort,
		AdminAPIKey: a.cfg.AdminAPIKey,
		CORSOrigins: a.cfg.CORSOrigins,
	},
		api.NewHandler(a.wallets, a.portfolios, a.positions, a.archives),
		api.NewSystemHandler(a.prices, sched),
	)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", a.cfg.HTTPPort, "mode", a.cfg.DataSourceMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func printPortfolio(c *cli.Context, a *app) error {
	id := c.Args().First()
	if id == "" {
		return cli.Exit("wallet id is required", 2)
	}
	p, err := a.portfolios.GetWalletPortfolio(c.Context, id)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func printPrices(c *cli.Context, a *app) error {
	mints := c.Args().Slice()
	if len(mints) == 0 {
		mints = domain.MajorMints()
	}
	return printJSON(a.prices.GetPrices(c.Context, mints))
}

func runTask(c *cli.Context, a *app) error {
	name := c.Args().First()
	sched := scheduler.New(a.tasks())
	if err := sched.Start(c.Context); err != nil {
		return err
	}
	defer sched.Stop()

	if !sched.ExecuteTask(c.Context, name) {
		return fmt.Errorf("task %q failed or does not exist", name)
	}
	return printJSON(sched.Status())
}

func exportXLSX(c *cli.Context, a *app) error {
	ctx := c.Context
	var portfolios []domain.WalletLPPortfolio
	for _, id := range a.wallets.Configured() {
		p, err := a.portfolios.GetWalletPortfolio(ctx, id)
		if err != nil {
			slog.Warn("skipping wallet", "wallet", id, "error", err)
			continue
		}
		portfolios = append(portfolios, p)
	}

	path := c.String("out")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	now := time.Now().UTC()
	svc := export.NewService(a.archives, export.NewXLSXWriter(f), a.synthetic())
	if err := svc.Export(ctx, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), portfolios); err != nil {
		return err
	}
	slog.Info("export written", "path", path, "wallets", len(portfolios))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
