package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type RPCMethodsConfig struct {
	BlockByHash   string `mapstructure:"blockByHash"`
	BlockByHeight string `mapstructure:"blockByHeight"`
	Transaction   string `mapstructure:"transaction"`
	Balance       string `mapstructure:"balance"`
	ChainInfo     string `mapstructure:"chainInfo"`
	Validators    string `mapstructure:"validators"`
	BlockCount    string `mapstructure:"blockCount"`
}

type RPCSubscriptionConfig struct {
	SubscribeMethod    string `mapstructure:"subscribeMethod"`
	NotificationMethod string `mapstructure:"notificationMethod"`
	BlocksTopic        string `mapstructure:"blocksTopic"`
	TransactionsTopic  string `mapstructure:"transactionsTopic"`
}

type RPCConfig struct {
	URL              string                `mapstructure:"url"`
	WSURL            string                `mapstructure:"wsUrl"`
	ParamStyle       string                `mapstructure:"paramStyle"`
	Timeout          int                   `mapstructure:"timeout"`
	ReconnectDelay   int                   `mapstructure:"reconnectDelay"`
	NotificationsBuf int                   `mapstructure:"notificationsBuffer"`
	Methods          RPCMethodsConfig      `mapstructure:"methods"`
	Subscription     RPCSubscriptionConfig `mapstructure:"subscription"`
}

type PollerConfig struct {
	Interval              int `mapstructure:"interval"`
	BlocksPerPoll         int `mapstructure:"blocksPerPoll"`
	SeenTransactionsCache int `mapstructure:"seenTransactionsCache"`
}

type IngestConfig struct {
	Workers           int  `mapstructure:"workers"`
	FetchBalances     bool `mapstructure:"fetchBalances"`
	InitialSyncBlocks int  `mapstructure:"initialSyncBlocks"`
	AverageWindow     int  `mapstructure:"averageWindow"`
}

type TrackerConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Interval int  `mapstructure:"interval"`
}

type HubConfig struct {
	HeartbeatInterval int    `mapstructure:"heartbeatInterval"`
	SendQueueSize     int    `mapstructure:"sendQueueSize"`
	WriteTimeout      int    `mapstructure:"writeTimeout"`
	Path              string `mapstructure:"path"`
}

type BasicAuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type APIConfig struct {
	Host      string          `mapstructure:"host"`
	BasicAuth BasicAuthConfig `mapstructure:"basicAuth"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"sslMode"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxConnLifetime int    `mapstructure:"maxConnLifetime"`
	ConnectTimeout  int    `mapstructure:"connectTimeout"`
}

type MemoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type StorageConnectionConfig struct {
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Memory   *MemoryConfig   `mapstructure:"memory"`
}

type StorageConfig struct {
	Main StorageConnectionConfig `mapstructure:"main"`
}

type KafkaConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Brokers  string `mapstructure:"brokers"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
	Channel  string `mapstructure:"channel"`
}

type PublisherConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
	Redis RedisConfig `mapstructure:"redis"`
}

type Config struct {
	RPC          RPCConfig       `mapstructure:"rpc"`
	Log          LogConfig       `mapstructure:"log"`
	Poller       PollerConfig    `mapstructure:"poller"`
	Ingest       IngestConfig    `mapstructure:"ingest"`
	Validators   TrackerConfig   `mapstructure:"validators"`
	ChainTracker TrackerConfig   `mapstructure:"chainTracker"`
	Hub          HubConfig       `mapstructure:"hub"`
	API          APIConfig       `mapstructure:"api"`
	Storage      StorageConfig   `mapstructure:"storage"`
	Publisher    PublisherConfig `mapstructure:"publisher"`
}

var Cfg Config

func LoadConfig(cfgFile string) error {
	// a missing .env is normal outside local development
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("error reading config file, %s", err)
			}
			log.Warn().Msg("No config file found, using flags and environment only")
		}

		viper.SetConfigName("secrets")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug().Err(err).Msg("no secrets file merged")
		}
	}

	// sets e.g. RPC_URL to rpc.url
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}
