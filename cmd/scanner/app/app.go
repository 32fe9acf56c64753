package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/roman-kulish/radio-spectrum/internal/sdr"
	"github.com/roman-kulish/radio-spectrum/internal/server"
	"github.com/roman-kulish/radio-spectrum/internal/storage"
	"github.com/roman-kulish/radio-spectrum/internal/sweep"
)

const (
	defaultListen   = ":8080"
	shutdownTimeout = 5 * time.Second
)

// Run wires the capture source, acquisition session and HTTP service
// together and serves until the context is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	capturer, closeSource, err := createSource(config)
	if err != nil {
		return fmt.Errorf("creating capture source: %w", err)
	}
	if closeSource != nil {
		defer closeSource()
	}

	session, err := sweep.NewSession(capturer, config.Hardware, config.Sweep.sweepConfig(), config.FFT,
		sweep.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	opts := []server.Option{server.WithLogger(logger)}
	if config.Storage.DatabasePath != "" {
		store := storage.NewSqliteStore(config.Storage.DatabasePath)
		defer store.Close()
		opts = append(opts, server.WithStore(store))
	}

	srv, err := server.New(session, config.Settings.Mode, config.Source.Type, opts...)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer srv.Close()

	listen := config.Server.Listen
	if listen == "" {
		listen = defaultListen
	}

	httpServer := &http.Server{
		Addr:    listen,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", listen), slog.String("mode", config.Settings.Mode))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func createSource(config *Config) (sdr.Capturer, func() error, error) {
	switch config.Source.Type {
	case SourceSimulated:
		src, err := sdr.NewSimulated(config.Hardware, config.Source.Emitters, config.Source.NoiseAmplitude, config.Source.Seed)
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil

	case SourceIQFile:
		src, err := sdr.OpenIQFile(config.Source.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown source type '%s'", config.Source.Type)
	}
}
