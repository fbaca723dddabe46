package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hexfront/engine/internal/config"
	"github.com/hexfront/engine/internal/relay"
)

func runRelay(ctx context.Context) error {
	cfg := config.GetRelayConfig()

	server, err := relay.NewServer(relay.FromConfig(cfg), SlogManager.Component("relay"))
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger.Info("Relay listening", "address", cfg.Address)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		server.Close()
		return err
	case <-ctx.Done():
	}

	Logger.Info("Relay shutting down")
	server.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
