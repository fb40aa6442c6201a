package rpc

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Params carries both encodings of a call's arguments; the caller picks one
// according to the configured dialect.
type Params struct {
	Named      map[string]interface{}
	Positional []interface{}
}

func NoParams() Params {
	return Params{}
}

func GetBlockByHashParams(hash string) Params {
	return Params{
		Named:      map[string]interface{}{"hash": hash},
		Positional: []interface{}{hash},
	}
}

func GetBlockByHeightParams(height uint64) Params {
	return Params{
		Named:      map[string]interface{}{"height": height},
		Positional: []interface{}{hexutil.EncodeUint64(height)},
	}
}

func GetTransactionParams(txid string) Params {
	return Params{
		Named:      map[string]interface{}{"txid": txid},
		Positional: []interface{}{txid},
	}
}

func GetBalanceParams(address string) Params {
	return Params{
		Named:      map[string]interface{}{"address": address},
		Positional: []interface{}{address},
	}
}

// SubscribeParams is always positional; the node expects ["new_blocks"].
func SubscribeParams(topic string) []interface{} {
	return []interface{}{topic}
}
