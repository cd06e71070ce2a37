package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"littlesteps/internal/app"
	"littlesteps/internal/config"
	"littlesteps/internal/logger"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	a, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	dryRun := cmd.Bool("dry-run")
	report, err := a.Digest.Run(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("digest run failed: %w", err)
	}

	if dryRun {
		for _, d := range report.Digests {
			fmt.Printf("To: %s\nSubject: %s\n\n%s\n\n", d.Email, d.Subject, d.Text)
		}
	}
	log.Info("Digest run finished", "dry_run", dryRun, "recipients", report.Recipients,
		"sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "digest",
		Usage:  "Build and send the weekly digest once, regardless of schedule",
		Action: run,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Render every digest to stdout without sending",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "digest: %v\n", err)
		os.Exit(1)
	}
}
