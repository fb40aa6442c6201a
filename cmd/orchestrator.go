package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/hub"
	"github.com/supereum/explorer-indexer/internal/orchestrator"
	"github.com/supereum/explorer-indexer/internal/publisher"
	"github.com/supereum/explorer-indexer/internal/rpc"
	"github.com/supereum/explorer-indexer/internal/storage"
	"golang.org/x/sync/errgroup"
)

var (
	orchestratorCmd = &cobra.Command{
		Use:   "orchestrator",
		Short: "Run ingestion, the subscriber hub and the HTTP server",
		Long:  "Runs the full pipeline until SIGINT or SIGTERM: initial sync, push or polled hints, ingestion, trackers, websocket fan-out and relays.",
		Run: func(cmd *cobra.Command, args []string) {
			RunOrchestrator(cmd, args)
		},
	}
)

func RunOrchestrator(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting explorer indexer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpcClient, err := rpc.Initialize(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize RPC")
	}
	defer rpcClient.Close()

	s, err := storage.NewStorageConnector(&config.Cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer s.MainStorage.Close()

	relays, err := publisher.NewRelays(&config.Cfg.Publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event relays")
	}
	defer publisher.CloseAll(relays)

	eventHub := hub.NewHub()
	publishers := []orchestrator.EventPublisher{eventHub}
	for _, relay := range relays {
		publishers = append(publishers, relay)
	}
	o := orchestrator.NewOrchestrator(rpcClient, s, orchestrator.WithPublishers(publishers...))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		eventHub.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return RunApi(ctx, eventHub, s.MainStorage)
	})
	g.Go(func() error {
		return o.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Explorer indexer stopped with error")
		return
	}
	log.Info().Msg("Explorer indexer stopped")
}
