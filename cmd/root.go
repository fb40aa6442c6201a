package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	configs "github.com/supereum/explorer-indexer/configs"
	customLogger "github.com/supereum/explorer-indexer/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "explorer-indexer",
		Short: "Ingest blocks from a Supereum node and stream them to explorer clients",
		Long:  "Follows the node over websocket or polling, writes blocks, transactions, addresses and validator stats to storage, and fans new events out to websocket subscribers and optional relays.",
		Run: func(cmd *cobra.Command, args []string) {
			RunOrchestrator(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("rpc-url", "", "JSON-RPC url of the node")
	rootCmd.PersistentFlags().String("rpc-ws-url", "", "Websocket url for push notifications; empty means polling only")
	rootCmd.PersistentFlags().String("rpc-param-style", "", "How RPC params are sent: named or positional")
	rootCmd.PersistentFlags().Int("rpc-timeout", 0, "Milliseconds to wait for one RPC call")
	rootCmd.PersistentFlags().Int("rpc-reconnect-delay", 0, "Milliseconds to wait before reconnecting the push subscription")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().Int("poller-interval", 0, "Fallback poll interval in milliseconds")
	rootCmd.PersistentFlags().Int("poller-blocks-per-poll", 0, "How many heights the fallback poller walks each interval")
	rootCmd.PersistentFlags().Int("ingest-workers", 0, "How many hints are ingested concurrently")
	rootCmd.PersistentFlags().Bool("ingest-fetch-balances", false, "Ask the node for participant balances on every ingestion")
	rootCmd.PersistentFlags().Int("ingest-initial-sync-blocks", 0, "Ingest blocks 0..n on startup; negative disables")
	rootCmd.PersistentFlags().Int("ingest-average-window", 0, "How many recent blocks the average block time covers")
	rootCmd.PersistentFlags().Bool("validators-enabled", true, "Toggle the validator tracker")
	rootCmd.PersistentFlags().Int("validators-interval", 0, "Validator snapshot interval in milliseconds")
	rootCmd.PersistentFlags().Bool("chain-tracker-enabled", true, "Toggle the chain tracker")
	rootCmd.PersistentFlags().Int("hub-heartbeat-interval", 0, "Subscriber heartbeat interval in milliseconds")
	rootCmd.PersistentFlags().Int("hub-send-queue-size", 0, "Events buffered per subscriber before it is disconnected")
	rootCmd.PersistentFlags().String("api-host", "", "Address the HTTP server listens on")
	rootCmd.PersistentFlags().Bool("storage-main-memory-enabled", false, "Keep all rows in memory instead of Postgres")
	rootCmd.PersistentFlags().String("storage-main-postgres-host", "", "Postgres host for main storage")
	rootCmd.PersistentFlags().Int("storage-main-postgres-port", 0, "Postgres port for main storage")
	rootCmd.PersistentFlags().String("storage-main-postgres-username", "", "Postgres username for main storage")
	rootCmd.PersistentFlags().String("storage-main-postgres-password", "", "Postgres password for main storage")
	rootCmd.PersistentFlags().String("storage-main-postgres-database", "", "Postgres database for main storage")
	rootCmd.PersistentFlags().Bool("publisher-kafka-enabled", false, "Relay events to Kafka")
	rootCmd.PersistentFlags().String("publisher-kafka-brokers", "", "Comma separated Kafka brokers")
	rootCmd.PersistentFlags().Bool("publisher-redis-enabled", false, "Relay events to Redis pub/sub")
	rootCmd.PersistentFlags().String("publisher-redis-addr", "", "Redis address")
	viper.BindPFlag("rpc.url", rootCmd.PersistentFlags().Lookup("rpc-url"))
	viper.BindPFlag("rpc.wsUrl", rootCmd.PersistentFlags().Lookup("rpc-ws-url"))
	viper.BindPFlag("rpc.paramStyle", rootCmd.PersistentFlags().Lookup("rpc-param-style"))
	viper.BindPFlag("rpc.timeout", rootCmd.PersistentFlags().Lookup("rpc-timeout"))
	viper.BindPFlag("rpc.reconnectDelay", rootCmd.PersistentFlags().Lookup("rpc-reconnect-delay"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("poller.interval", rootCmd.PersistentFlags().Lookup("poller-interval"))
	viper.BindPFlag("poller.blocksPerPoll", rootCmd.PersistentFlags().Lookup("poller-blocks-per-poll"))
	viper.BindPFlag("ingest.workers", rootCmd.PersistentFlags().Lookup("ingest-workers"))
	viper.BindPFlag("ingest.fetchBalances", rootCmd.PersistentFlags().Lookup("ingest-fetch-balances"))
	viper.BindPFlag("ingest.initialSyncBlocks", rootCmd.PersistentFlags().Lookup("ingest-initial-sync-blocks"))
	viper.BindPFlag("ingest.averageWindow", rootCmd.PersistentFlags().Lookup("ingest-average-window"))
	viper.BindPFlag("validators.enabled", rootCmd.PersistentFlags().Lookup("validators-enabled"))
	viper.BindPFlag("validators.interval", rootCmd.PersistentFlags().Lookup("validators-interval"))
	viper.BindPFlag("chainTracker.enabled", rootCmd.PersistentFlags().Lookup("chain-tracker-enabled"))
	viper.BindPFlag("hub.heartbeatInterval", rootCmd.PersistentFlags().Lookup("hub-heartbeat-interval"))
	viper.BindPFlag("hub.sendQueueSize", rootCmd.PersistentFlags().Lookup("hub-send-queue-size"))
	viper.BindPFlag("api.host", rootCmd.PersistentFlags().Lookup("api-host"))
	viper.BindPFlag("storage.main.memory.enabled", rootCmd.PersistentFlags().Lookup("storage-main-memory-enabled"))
	viper.BindPFlag("storage.main.postgres.host", rootCmd.PersistentFlags().Lookup("storage-main-postgres-host"))
	viper.BindPFlag("storage.main.postgres.port", rootCmd.PersistentFlags().Lookup("storage-main-postgres-port"))
	viper.BindPFlag("storage.main.postgres.username", rootCmd.PersistentFlags().Lookup("storage-main-postgres-username"))
	viper.BindPFlag("storage.main.postgres.password", rootCmd.PersistentFlags().Lookup("storage-main-postgres-password"))
	viper.BindPFlag("storage.main.postgres.database", rootCmd.PersistentFlags().Lookup("storage-main-postgres-database"))
	viper.BindPFlag("publisher.kafka.enabled", rootCmd.PersistentFlags().Lookup("publisher-kafka-enabled"))
	viper.BindPFlag("publisher.kafka.brokers", rootCmd.PersistentFlags().Lookup("publisher-kafka-brokers"))
	viper.BindPFlag("publisher.redis.enabled", rootCmd.PersistentFlags().Lookup("publisher-redis-enabled"))
	viper.BindPFlag("publisher.redis.addr", rootCmd.PersistentFlags().Lookup("publisher-redis-addr"))
	rootCmd.AddCommand(orchestratorCmd)
	rootCmd.AddCommand(backfillCmd)
}

func initConfig() {
	if err := configs.LoadConfig(cfgFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	customLogger.InitLogger()
}
