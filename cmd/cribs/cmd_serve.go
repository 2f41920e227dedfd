package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/internal/api"
)

var serveFlags struct {
	port int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compare, dataset and metrics endpoints over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	port := app.cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port = serveFlags.port
	}

	handler, err := api.NewHandler(app.cfg, app.logger, app.metrics)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler, app.cfg.Server, app.metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Infof("Starting server on port %d", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
