package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"littlesteps/internal/app"
	"littlesteps/internal/config"
	"littlesteps/internal/handlers"
	"littlesteps/internal/logger"
	"littlesteps/internal/security"
)

const (
	sessionCleanupInterval = time.Hour
	digestCheckInterval    = time.Hour
	shutdownTimeout        = 10 * time.Second
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load()
	if port := cmd.String("port"); port != "" {
		cfg.ServerPort = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Until startup finishes every request gets the health response.
	status := handlers.NewStartupStatus()
	var api atomic.Pointer[http.Handler]
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := api.Load(); h != nil {
			(*h).ServeHTTP(w, r)
			return
		}
		status.Health(w, r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	a, err := app.New(gCtx, cfg, log, status)
	if err != nil {
		stop()
		_ = g.Wait()
		return err
	}
	defer a.Close()

	limiter := security.NewRateLimiter(int(cmd.Int("auth-rate")), time.Minute)
	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:        a.Auth,
		Children:    a.Children,
		Planning:    a.Planning,
		Feed:        a.Feed,
		Preferences: a.Preferences,
		Digest:      a.Digest,
		Welcome:     a.Email,
		Catalog:     a.Catalog,
		CSRF:        a.CSRF,
		AuthLimiter: limiter,
		Startup:     status,
		Log:         log,
	})
	var h http.Handler = router
	api.Store(&h)
	status.MarkReady()
	log.Info("Server ready", "url", cfg.AppBaseURL)

	g.Go(func() error {
		limiter.RunCleanup(gCtx, time.Minute)
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				n, err := a.Auth.CleanupExpiredSessions()
				if err != nil {
					log.Error("Failed to clean up expired sessions", "error", err)
					continue
				}
				log.Debug("Expired sessions cleaned up", "removed", n)
			}
		}
	})

	if cfg.DigestEnabled {
		g.Go(func() error {
			runDigest(gCtx, a, log)
			ticker := time.NewTicker(digestCheckInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					runDigest(gCtx, a, log)
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Application error", "error", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

// runDigest sends the weekly digest when it is due; failures wait for the next tick
func runDigest(ctx context.Context, a *app.App, log *logger.Logger) {
	report, err := a.Digest.RunIfDue(ctx)
	if err != nil {
		log.Error("Digest run failed", "error", err)
		return
	}
	if report != nil {
		log.Info("Digest run finished", "recipients", report.Recipients, "sent", report.Sent,
			"skipped", report.Skipped, "failed", report.Failed)
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "littlesteps",
		Usage:  "Pregnancy and early-childhood planner API",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP listen port (overrides PORT)",
			},
			&cli.IntFlag{
				Name:    "auth-rate",
				Usage:   "Login and registration attempts allowed per client per minute",
				Value:   10,
				Sources: cli.EnvVars("AUTH_RATE_LIMIT"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "littlesteps: %v\n", err)
		os.Exit(1)
	}
}
