package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/handlers"
	"github.com/supereum/explorer-indexer/internal/hub"
	"github.com/supereum/explorer-indexer/internal/storage"
)

const DEFAULT_API_HOST = ":3001"

// RunApi serves the websocket and diagnostic routes until ctx is done.
func RunApi(ctx context.Context, eventHub *hub.Hub, store storage.IMainStorage) error {
	host := config.Cfg.API.Host
	if host == "" {
		host = DEFAULT_API_HOST
	}

	srv := &http.Server{
		Addr:    host,
		Handler: handlers.NewRouter(eventHub, store),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("host", host).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server forced to shutdown")
	}
	log.Info().Msg("API server exited")
	return nil
}
