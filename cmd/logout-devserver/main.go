package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codice/logout-devserver/internal/config"
	"github.com/codice/logout-devserver/internal/logger"
	"github.com/codice/logout-devserver/internal/proxy"
	"github.com/codice/logout-devserver/internal/server"
	"github.com/codice/logout-devserver/internal/version"
)

// Development server for the logout UI: serves the built and source webapp
// under /logout and proxies everything else to the backend.
func main() {
	cmd := &cobra.Command{
		Use:   "logout-devserver",
		Short: "Logout UI development server",
		Long: `logout-devserver serves the logout UI static assets under /logout
(target/webapp first, then src/main/webapp) and proxies every other request to the backend.

Configuration is read from the environment (and from a .env file in the working directory, if present).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// variables already set in the environment take precedence over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env file: %v", err.Error())
		return err
	}

	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		return err
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("STATIC_PREFIX", cfg.StaticPrefix),
		slog.Any("STATIC_DIRS", cfg.StaticDirs()),
		slog.String("PROXY_TARGET", cfg.ProxyTarget),
		slog.Bool("PROXY_INSECURE_SKIP_VERIFY", cfg.ProxyInsecureSkipVerify),
	)

	requestProxy, err := proxy.New(proxy.Config{
		Target:             cfg.ProxyTarget,
		InsecureSkipVerify: cfg.ProxyInsecureSkipVerify,
	})
	if err != nil {
		appLogger.Error("Failed to create request proxy", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := server.NewServer(cfg, appLogger, requestProxy)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		return err
	}

	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
