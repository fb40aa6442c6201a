package normalizer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/supereum/explorer-indexer/internal/common"
)

// NormalizeBlockNotification extracts a block hint from a push notification
// result. A missing timestamp defaults to the receive time.
func NormalizeBlockNotification(raw json.RawMessage, source common.HintSource) (common.Hint, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return common.Hint{}, err
	}
	hash := notifyBlockHashRule.str(obj)
	if hash == "" {
		return common.Hint{}, fmt.Errorf("block notification without hash: %w", common.ErrInvalidPayload)
	}
	hint := common.Hint{Kind: common.HintKindBlock, Hash: hash, Source: source, Timestamp: time.Now().Unix()}
	if v, ok := notifyBlockNumberRule.find(obj); ok {
		if n, err := ParseUint(v); err == nil {
			hint.Number = &n
		}
	}
	if v, ok := notifyTimestampRule.find(obj); ok {
		if ts, err := ParseInt64(v); err == nil {
			hint.Timestamp = ts
		}
	}
	return hint, nil
}

func NormalizeTransactionNotification(raw json.RawMessage, source common.HintSource) (common.Hint, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return common.Hint{}, err
	}
	hash := notifyTxHashRule.str(obj)
	if hash == "" {
		return common.Hint{}, fmt.Errorf("transaction notification without hash: %w", common.ErrInvalidPayload)
	}
	return common.Hint{Kind: common.HintKindTransaction, Hash: hash, Source: source, Timestamp: time.Now().Unix()}, nil
}
