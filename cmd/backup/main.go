package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"littlesteps/internal/app"
	"littlesteps/internal/config"
	"littlesteps/internal/logger"
)

// open loads configuration and brings the schema up to date before touching data
func open(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return app.New(ctx, cfg, log, nil)
}

func export(ctx context.Context, cmd *cli.Command) error {
	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	a.Log.Info("Exporting database", "path", outputPath)
	if _, err := a.Backup.Export(f); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if info, err := f.Stat(); err == nil {
		a.Log.Info("Export complete", "path", outputPath, "bytes", info.Size())
	}
	return nil
}

func restore(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	clearExisting := cmd.Bool("clear")

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if clearExisting && !cmd.Bool("yes") {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("Import cancelled")
			return nil
		}
	}

	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Log.Info("Importing database", "path", inputPath, "clear", clearExisting)
	backup, err := a.Backup.Import(f, clearExisting)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("Imported %d users, %d children, %d preference sets, %d checklist items\n",
		len(backup.Users), len(backup.Children), len(backup.Preferences), len(backup.ChecklistItems))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backup",
		Usage: "Export or restore Little Steps account data as JSON",
		Commands: []*cli.Command{
			{
				Name:   "export",
				Usage:  "Write every account to a JSON backup file",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: backup_YYYYMMDD_HHMMSS.json)",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Restore accounts from a JSON backup file",
				Action: restore,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Backup file to restore",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete existing data before importing (destructive)",
					},
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt for --clear",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "backup: %v\n", err)
		os.Exit(1)
	}
}
