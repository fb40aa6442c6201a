package rpc

import (
	"time"

	config "github.com/supereum/explorer-indexer/configs"
)

const (
	DEFAULT_RPC_TIMEOUT          = 30000
	DEFAULT_RECONNECT_DELAY      = 10000
	DEFAULT_POLL_INTERVAL        = 15000
	DEFAULT_BLOCKS_PER_POLL      = 50
	DEFAULT_SEEN_TX_CACHE        = 10000
	DEFAULT_NOTIFICATIONS_BUFFER = 256

	DEFAULT_METHOD_BLOCK_BY_HASH   = "getBlockByHash"
	DEFAULT_METHOD_BLOCK_BY_HEIGHT = "getBlockByHeight"
	DEFAULT_METHOD_TRANSACTION     = "getTransaction"
	DEFAULT_METHOD_BALANCE         = "getBalance"
	DEFAULT_METHOD_CHAIN_INFO      = "getChainInfo"
	DEFAULT_METHOD_VALIDATORS      = "getValidators"
	DEFAULT_METHOD_BLOCK_COUNT     = "getBlockCount"

	DEFAULT_SUBSCRIBE_METHOD    = "sup_subscribe"
	DEFAULT_NOTIFICATION_METHOD = "sup_subscription"
	DEFAULT_BLOCKS_TOPIC        = "new_blocks"
	DEFAULT_TRANSACTIONS_TOPIC  = "new_transactions"
)

type ParamStyle string

const (
	ParamStyleNamed      ParamStyle = "named"
	ParamStylePositional ParamStyle = "positional"
)

type Methods struct {
	BlockByHash   string
	BlockByHeight string
	Transaction   string
	Balance       string
	ChainInfo     string
	Validators    string
	BlockCount    string
}

type SubscriptionConfig struct {
	SubscribeMethod    string
	NotificationMethod string
	BlocksTopic        string
	TransactionsTopic  string
}

type PollerConfig struct {
	Interval      time.Duration
	BlocksPerPoll int
	SeenTxCache   int
}

type ClientConfig struct {
	URL                 string
	WSURL               string
	ParamStyle          ParamStyle
	Timeout             time.Duration
	ReconnectDelay      time.Duration
	NotificationsBuffer int
	Methods             Methods
	Subscription        SubscriptionConfig
	Poller              PollerConfig
}

func orDefault(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// GetClientConfig reads config.Cfg.RPC and config.Cfg.Poller, filling unset values with defaults.
func GetClientConfig() ClientConfig {
	rpcCfg := config.Cfg.RPC
	pollCfg := config.Cfg.Poller

	style := ParamStyle(rpcCfg.ParamStyle)
	if style != ParamStylePositional {
		style = ParamStyleNamed
	}

	return ClientConfig{
		URL:                 rpcCfg.URL,
		WSURL:               rpcCfg.WSURL,
		ParamStyle:          style,
		Timeout:             time.Duration(orDefaultInt(rpcCfg.Timeout, DEFAULT_RPC_TIMEOUT)) * time.Millisecond,
		ReconnectDelay:      time.Duration(orDefaultInt(rpcCfg.ReconnectDelay, DEFAULT_RECONNECT_DELAY)) * time.Millisecond,
		NotificationsBuffer: orDefaultInt(rpcCfg.NotificationsBuf, DEFAULT_NOTIFICATIONS_BUFFER),
		Methods: Methods{
			BlockByHash:   orDefault(rpcCfg.Methods.BlockByHash, DEFAULT_METHOD_BLOCK_BY_HASH),
			BlockByHeight: orDefault(rpcCfg.Methods.BlockByHeight, DEFAULT_METHOD_BLOCK_BY_HEIGHT),
			Transaction:   orDefault(rpcCfg.Methods.Transaction, DEFAULT_METHOD_TRANSACTION),
			Balance:       orDefault(rpcCfg.Methods.Balance, DEFAULT_METHOD_BALANCE),
			ChainInfo:     orDefault(rpcCfg.Methods.ChainInfo, DEFAULT_METHOD_CHAIN_INFO),
			Validators:    orDefault(rpcCfg.Methods.Validators, DEFAULT_METHOD_VALIDATORS),
			BlockCount:    orDefault(rpcCfg.Methods.BlockCount, DEFAULT_METHOD_BLOCK_COUNT),
		},
		Subscription: SubscriptionConfig{
			SubscribeMethod:    orDefault(rpcCfg.Subscription.SubscribeMethod, DEFAULT_SUBSCRIBE_METHOD),
			NotificationMethod: orDefault(rpcCfg.Subscription.NotificationMethod, DEFAULT_NOTIFICATION_METHOD),
			BlocksTopic:        orDefault(rpcCfg.Subscription.BlocksTopic, DEFAULT_BLOCKS_TOPIC),
			TransactionsTopic:  orDefault(rpcCfg.Subscription.TransactionsTopic, DEFAULT_TRANSACTIONS_TOPIC),
		},
		Poller: PollerConfig{
			Interval:      time.Duration(orDefaultInt(pollCfg.Interval, DEFAULT_POLL_INTERVAL)) * time.Millisecond,
			BlocksPerPoll: orDefaultInt(pollCfg.BlocksPerPoll, DEFAULT_BLOCKS_PER_POLL),
			SeenTxCache:   orDefaultInt(pollCfg.SeenTransactionsCache, DEFAULT_SEEN_TX_CACHE),
		},
	}
}
