package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dirserve/dirserve"
	"github.com/dirserve/dirserve/archive"
	"github.com/dirserve/dirserve/config"
	"github.com/dirserve/dirserve/credentials"
	"github.com/dirserve/dirserve/filesystem"
	dirservehttp "github.com/dirserve/dirserve/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the dirserve HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("host", "", "bind address (default: all interfaces)")
	serveCmd.Flags().Bool("upload", false, "allow file uploads via PUT")
	serveCmd.Flags().StringSlice("auth", nil, "basic auth account (user:pass or user:sha256:hash), repeatable")
	serveCmd.Flags().String("auth-file", "", "file with one basic auth account per line")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	store, err := filesystem.NewStore(cfg.Serve.Path, filesystem.Options{
		FollowSymlinks: cfg.Serve.FollowSymlinks,
		IncludeHidden:  cfg.Serve.IncludeHidden,
	})
	if err != nil {
		return fmt.Errorf("open served directory: %w", err)
	}
	defer func() { _ = store.Close() }()

	service, err := dirserve.NewService(store, archive.NewEncoder)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	var authStore credentials.Store
	if len(cfg.Auth.Inline) > 0 || cfg.Auth.File != "" {
		authStore, err = credentials.NewStore(cfg.Auth)
		if err != nil {
			return fmt.Errorf("load auth accounts: %w", err)
		}
	}

	handlerConfig := dirservehttp.HandlerConfig{
		ArchiveEnabled:  cfg.Archive.Enabled,
		UploadEnabled:   cfg.Upload.Enabled,
		UploadOverwrite: cfg.Upload.Overwrite,
		Auth:            authStore,
		CORS:            cfg.CORS,
	}

	handler := dirservehttp.NewHandler(&handlerConfig, service)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: archive downloads are open-ended streams, and a
		// slow or gone client is handled through request-context cancellation.
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr, "path", cfg.Serve.Path,
			"archive", cfg.Archive.Enabled, "upload", cfg.Upload.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
