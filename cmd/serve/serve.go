// Package serve implements the HTTP API server command.
package serve

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lapalma/sunscan-go/internal/ads"
	"github.com/lapalma/sunscan-go/internal/api"
	"github.com/lapalma/sunscan-go/internal/conf"
	"github.com/lapalma/sunscan-go/internal/dataset"
	"github.com/lapalma/sunscan-go/internal/logging"
)

// Command creates the serve command, which runs the HTTP API server until
// interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the observation HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runServer(settings *conf.Settings) error {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	loader := dataset.NewLoader()
	defer loader.Close()

	// warm the cache so a broken dataset path is visible at startup
	if ds, err := loader.Load(settings.Dataset.Path); err != nil {
		logging.Warn("Dataset not loadable at startup, serving anyway", "path", settings.Dataset.Path, "error", err)
	} else {
		logging.Info("Dataset loaded", "path", settings.Dataset.Path, "rows", len(ds.Rows))
	}

	var adsClient *ads.Client
	if settings.ADS.APIKey != "" {
		client, err := ads.NewClient(ads.ConfigFromSettings(&settings.ADS))
		if err != nil {
			return fmt.Errorf("failed to initialize literature search client: %w", err)
		}
		adsClient = client
		defer adsClient.Close()
	} else {
		logging.Warn("No ADS API key configured, literature search disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	if settings.Debug {
		e.Use(middleware.Logger())
	}

	controller := api.New(e, settings, loader, adsClient, logger)
	defer controller.Shutdown()

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		logging.Info("HTTP server starting", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-quit:
		logging.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	return nil
}
