package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/normalizer"
)

type IRPCClient interface {
	FetchBlockByHash(ctx context.Context, hash string) (json.RawMessage, error)
	FetchBlockByHeight(ctx context.Context, height uint64) (json.RawMessage, error)
	FetchTransaction(ctx context.Context, hash string) (json.RawMessage, error)
	FetchBalance(ctx context.Context, address string) (decimal.Decimal, error)
	FetchChainInfo(ctx context.Context) (*common.ChainInfo, error)
	FetchValidatorSnapshot(ctx context.Context) ([]common.ValidatorStat, error)
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	StreamNotifications(ctx context.Context) <-chan common.Hint
	GetURL() string
	Close()
}

type Client struct {
	cfg        ClientConfig
	caller     caller
	requestIDs atomic.Uint64
	// highest height hinted by either push or poll
	seenMutex  sync.Mutex
	lastSeen   uint64
	hasSeen    bool
}

func Initialize(ctx context.Context) (IRPCClient, error) {
	return NewClient(ctx, GetClientConfig())
}

func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("RPC_URL environment variable is not set")
	}
	log.Debug().Str("url", cfg.URL).Str("paramStyle", string(cfg.ParamStyle)).Msg("Initializing RPC")

	var c caller
	if cfg.ParamStyle == ParamStylePositional {
		pc, err := newPositionalCaller(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		c = pc
	} else {
		c = newNamedCaller(cfg.URL, &http.Client{Timeout: cfg.Timeout})
	}
	return &Client{cfg: cfg, caller: c}, nil
}

func (rpc *Client) GetURL() string {
	return rpc.cfg.URL
}

func (rpc *Client) Close() {
	rpc.caller.Close()
}

func (rpc *Client) call(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, rpc.cfg.Timeout)
	defer cancel()
	return rpc.caller.Call(ctx, method, params)
}

func (rpc *Client) FetchBlockByHash(ctx context.Context, hash string) (json.RawMessage, error) {
	return rpc.call(ctx, rpc.cfg.Methods.BlockByHash, GetBlockByHashParams(hash))
}

func (rpc *Client) FetchBlockByHeight(ctx context.Context, height uint64) (json.RawMessage, error) {
	return rpc.call(ctx, rpc.cfg.Methods.BlockByHeight, GetBlockByHeightParams(height))
}

func (rpc *Client) FetchTransaction(ctx context.Context, hash string) (json.RawMessage, error) {
	return rpc.call(ctx, rpc.cfg.Methods.Transaction, GetTransactionParams(hash))
}

func (rpc *Client) FetchBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	raw, err := rpc.call(ctx, rpc.cfg.Methods.Balance, GetBalanceParams(address))
	if err != nil {
		return decimal.Zero, err
	}
	return normalizer.NormalizeBalance(raw)
}

func (rpc *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	raw, err := rpc.call(ctx, rpc.cfg.Methods.BlockCount, NoParams())
	if err != nil {
		return 0, err
	}
	info, err := normalizer.NormalizeChainInfo(raw)
	if err != nil {
		return 0, err
	}
	return info.Height, nil
}

// FetchChainInfo asks for the chain info and, if the node does not answer
// it, assembles one from the block count and the head block.
func (rpc *Client) FetchChainInfo(ctx context.Context) (*common.ChainInfo, error) {
	raw, err := rpc.call(ctx, rpc.cfg.Methods.ChainInfo, NoParams())
	if err == nil {
		info, normErr := normalizer.NormalizeChainInfo(raw)
		if normErr == nil {
			return info, nil
		}
		err = normErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Debug().Err(err).Msg("Chain info unavailable, falling back to block count")

	height, err := rpc.GetLatestBlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	info := &common.ChainInfo{Height: height}
	rawHead, err := rpc.FetchBlockByHeight(ctx, height)
	if err != nil {
		log.Debug().Err(err).Uint64("height", height).Msg("Head block unavailable for chain info")
		return info, nil
	}
	if head, _, err := normalizer.NormalizeBlock(rawHead); err == nil {
		info.BestHash = head.Hash
		if head.Difficulty != nil {
			info.Difficulty = head.Difficulty.String()
		}
	}
	return info, nil
}

func (rpc *Client) FetchValidatorSnapshot(ctx context.Context) ([]common.ValidatorStat, error) {
	raw, err := rpc.call(ctx, rpc.cfg.Methods.Validators, NoParams())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return []common.ValidatorStat{}, nil
		}
		return nil, err
	}
	return normalizer.NormalizeValidators(raw)
}

// markSeen raises the shared last-seen height and reports whether height was new.
func (rpc *Client) markSeen(height uint64) bool {
	rpc.seenMutex.Lock()
	defer rpc.seenMutex.Unlock()
	if rpc.hasSeen && height <= rpc.lastSeen {
		return false
	}
	rpc.lastSeen = height
	rpc.hasSeen = true
	return true
}

func (rpc *Client) lastSeenHeight() (uint64, bool) {
	rpc.seenMutex.Lock()
	defer rpc.seenMutex.Unlock()
	return rpc.lastSeen, rpc.hasSeen
}
