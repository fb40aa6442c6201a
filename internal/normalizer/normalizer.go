package normalizer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/supereum/explorer-indexer/internal/common"
)

// NormalizeBlock maps a node block payload, either the header/body shape or
// a flat object, into a canonical block and its transactions.
func NormalizeBlock(raw json.RawMessage) (*common.Block, []common.Transaction, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, nil, err
	}
	return normalizeBlockObject(obj)
}

func normalizeBlockObject(obj map[string]interface{}) (*common.Block, []common.Transaction, error) {
	hash := blockHashRule.str(obj)
	if hash == "" {
		return nil, nil, fmt.Errorf("block without hash: %w", common.ErrInvalidPayload)
	}
	rawNumber, ok := blockNumberRule.find(obj)
	if !ok {
		return nil, nil, fmt.Errorf("block %s without number: %w", hash, common.ErrInvalidPayload)
	}
	signedNumber, err := ParseInt64(rawNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("block %s number: %v: %w", hash, err, common.ErrInvalidPayload)
	}
	number := uint64(signedNumber)

	block := &common.Block{
		Number:          number,
		Hash:            hash,
		ParentHash:      blockParentRule.str(obj),
		Timestamp:       optionalInt64(obj, blockTimestampRule, hash, "timestamp"),
		ProducerPoW:     blockMinerRule.str(obj),
		ProducerPoS:     blockValidatorRule.str(obj),
		Difficulty:      optionalBig(obj, blockDifficultyRule, hash, "difficulty"),
		TotalDifficulty: optionalBig(obj, blockTotalDiffRule, hash, "totalDifficulty"),
		SizeBytes:       optionalUint(obj, blockSizeRule, hash, "size"),
		GasUsed:         optionalUint(obj, blockGasUsedRule, hash, "gasUsed"),
		GasLimit:        optionalUint(obj, blockGasLimitRule, hash, "gasLimit"),
		Nonce:           blockNonceRule.str(obj),
		MerkleRoot:      blockMerkleRule.str(obj),
		StateRoot:       blockStateRootRule.str(obj),
		ReceiptsRoot:    blockReceiptsRule.str(obj),
	}
	if !block.HasProducer() {
		log.Warn().Str("hash", hash).Uint64("number", number).Msg("Block has neither miner nor validator")
	}

	var txs []common.Transaction
	if rawTxs, ok := blockTransactionRule.find(obj); ok {
		list, ok := rawTxs.([]interface{})
		if !ok {
			return nil, nil, fmt.Errorf("block %s transactions are %T: %w", hash, rawTxs, common.ErrInvalidPayload)
		}
		txs = make([]common.Transaction, 0, len(list))
		for i, item := range list {
			tx, err := normalizeBlockTransaction(item, block)
			if err != nil {
				return nil, nil, fmt.Errorf("block %s transaction %d: %w", hash, i, err)
			}
			txs = append(txs, tx)
		}
	}
	block.TransactionCount = uint64(len(txs))
	return block, txs, nil
}

func normalizeBlockTransaction(item interface{}, block *common.Block) (common.Transaction, error) {
	switch v := item.(type) {
	case string:
		// some nodes list only the hashes of contained transactions
		if v == "" {
			return common.Transaction{}, fmt.Errorf("empty transaction hash: %w", common.ErrInvalidPayload)
		}
		number := block.Number
		return common.Transaction{
			Hash:        v,
			BlockNumber: &number,
			BlockHash:   block.Hash,
			Timestamp:   block.Timestamp,
			Status:      common.TransactionStatusConfirmed,
		}, nil
	case map[string]interface{}:
		return normalizeTransactionObject(v, block)
	}
	return common.Transaction{}, fmt.Errorf("transaction is %T: %w", item, common.ErrInvalidPayload)
}

// NormalizeTransaction maps a standalone transaction payload.
func NormalizeTransaction(raw json.RawMessage) (*common.Transaction, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	tx, err := normalizeTransactionObject(obj, nil)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func normalizeTransactionObject(obj map[string]interface{}, block *common.Block) (common.Transaction, error) {
	hash := txHashRule.str(obj)
	if hash == "" {
		return common.Transaction{}, fmt.Errorf("transaction without hash: %w", common.ErrInvalidPayload)
	}

	tx := common.Transaction{
		Hash:      hash,
		Sender:    txSenderRule.str(obj),
		Receiver:  txReceiverRule.str(obj),
		BlockHash: txBlockHashRule.str(obj),
		Kind:      txKindRule.str(obj),
		Data:      txDataRule.str(obj),
		GasLimit:  optionalUint(obj, txGasLimitRule, hash, "gasLimit"),
		GasUsed:   optionalUint(obj, txGasUsedRule, hash, "gasUsed"),
		GasPrice:  optionalDecimal(obj, txGasPriceRule, hash, "gasPrice"),
		Timestamp: optionalInt64(obj, txTimestampRule, hash, "timestamp"),
	}

	if rawAmount, ok := txAmountRule.find(obj); ok {
		amount, err := ParseDecimal(rawAmount)
		if err != nil {
			return common.Transaction{}, fmt.Errorf("transaction %s amount: %v: %w", hash, err, common.ErrInvalidPayload)
		}
		if amount.IsNegative() {
			return common.Transaction{}, fmt.Errorf("transaction %s has negative amount %s: %w", hash, amount, common.ErrInvalidPayload)
		}
		tx.Amount = amount
	}

	if rawFee, ok := txFeeRule.find(obj); ok {
		tx.FeePaid = optionalDecimalValue(rawFee, hash, "fee")
	} else {
		gas := tx.GasUsed
		if gas == 0 {
			gas = tx.GasLimit
		}
		tx.FeePaid = tx.GasPrice.Mul(decimal.NewFromBigInt(new(big.Int).SetUint64(gas), 0))
	}

	if block != nil {
		number := block.Number
		tx.BlockNumber = &number
		if tx.BlockHash == "" {
			tx.BlockHash = block.Hash
		}
		if tx.Timestamp == 0 {
			tx.Timestamp = block.Timestamp
		}
	} else if rawNumber, ok := txBlockNumberRule.find(obj); ok {
		if signed, err := ParseInt64(rawNumber); err == nil {
			number := uint64(signed)
			tx.BlockNumber = &number
		} else {
			log.Debug().Err(err).Str("hash", hash).Msg("Ignoring unparseable transaction block number")
		}
	}

	tx.Status = inferStatus(obj, tx.InBlock())
	return tx, nil
}

// inferStatus: explicit status, then the confirmed flag, then block inclusion.
func inferStatus(obj map[string]interface{}, inBlock bool) common.TransactionStatus {
	status := common.TransactionStatusUnknown
	if raw := txStatusRule.str(obj); raw != "" {
		status = common.ParseTransactionStatus(raw)
	} else if rawConfirmed, ok := txConfirmedRule.find(obj); ok {
		if confirmed, err := parseBool(rawConfirmed); err == nil {
			if confirmed {
				status = common.TransactionStatusConfirmed
			} else {
				status = common.TransactionStatusFailed
			}
		}
	} else if inBlock {
		status = common.TransactionStatusConfirmed
	}
	return common.SettleStatus(status, inBlock)
}

// NormalizeBalance accepts a scalar, an object with balance or amount, or
// any object carrying a single numeric property.
func NormalizeBalance(raw json.RawMessage) (decimal.Decimal, error) {
	v, err := decode(raw)
	if err != nil {
		return decimal.Zero, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		d, err := ParseDecimal(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("balance: %v: %w", err, common.ErrInvalidPayload)
		}
		return d, nil
	}
	if b, ok := balanceRule.find(obj); ok {
		d, err := ParseDecimal(b)
		if err != nil {
			return decimal.Zero, fmt.Errorf("balance: %v: %w", err, common.ErrInvalidPayload)
		}
		return d, nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, isNum := obj[k].(json.Number); !isNum {
			continue
		}
		if d, err := ParseDecimal(obj[k]); err == nil {
			return d, nil
		}
	}
	return decimal.Zero, fmt.Errorf("no numeric balance field: %w", common.ErrInvalidPayload)
}

// NormalizeChainInfo reads the chain head from either a chain info object or
// a bare height.
func NormalizeChainInfo(raw json.RawMessage) (*common.ChainInfo, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		height, err := ParseUint(v)
		if err != nil {
			return nil, fmt.Errorf("chain height: %v: %w", err, common.ErrInvalidPayload)
		}
		return &common.ChainInfo{Height: height}, nil
	}
	rawHeight, ok := chainHeightRule.find(obj)
	if !ok {
		return nil, fmt.Errorf("chain info without height: %w", common.ErrInvalidPayload)
	}
	height, err := ParseUint(rawHeight)
	if err != nil {
		return nil, fmt.Errorf("chain height: %v: %w", err, common.ErrInvalidPayload)
	}
	return &common.ChainInfo{
		Height:     height,
		BestHash:   chainBestHashRule.str(obj),
		Difficulty: chainDifficultyRule.str(obj),
	}, nil
}

// NormalizeValidators maps a validator snapshot, either a bare list or an
// object wrapping one. Entries without an address are skipped.
func NormalizeValidators(raw json.RawMessage) ([]common.ValidatorStat, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]interface{})
	if !ok {
		obj, isObj := v.(map[string]interface{})
		if !isObj {
			return nil, fmt.Errorf("validators are %T: %w", v, common.ErrInvalidPayload)
		}
		inner, found := validatorListRule.find(obj)
		if !found {
			return nil, fmt.Errorf("validator snapshot without list: %w", common.ErrInvalidPayload)
		}
		if list, ok = inner.([]interface{}); !ok {
			return nil, fmt.Errorf("validators are %T: %w", inner, common.ErrInvalidPayload)
		}
	}

	stats := make([]common.ValidatorStat, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		addr := validatorAddressRule.str(obj)
		if addr == "" {
			log.Debug().Msg("Skipping validator entry without address")
			continue
		}
		stat := common.ValidatorStat{
			Address: addr,
			Stake:   optionalDecimal(obj, validatorStakeRule, addr, "stake"),
			Active:  true,
		}
		if u, ok := validatorUptimeRule.find(obj); ok {
			stat.Uptime, _ = parseFloat(u)
		}
		if s, ok := validatorScoreRule.find(obj); ok {
			stat.Score, _ = parseFloat(s)
		}
		if a, ok := validatorActiveRule.find(obj); ok {
			if active, err := parseBool(a); err == nil {
				stat.Active = active
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func optionalUint(obj map[string]interface{}, r rule, id string, field string) uint64 {
	v, ok := r.find(obj)
	if !ok {
		return 0
	}
	n, err := ParseUint(v)
	if err != nil {
		log.Debug().Err(err).Str("id", id).Str("field", field).Msg("Unparseable optional field, using zero")
		return 0
	}
	return n
}

func optionalInt64(obj map[string]interface{}, r rule, id string, field string) int64 {
	v, ok := r.find(obj)
	if !ok {
		return 0
	}
	n, err := ParseInt64(v)
	if err != nil {
		log.Debug().Err(err).Str("id", id).Str("field", field).Msg("Unparseable optional field, using zero")
		return 0
	}
	return n
}

func optionalBig(obj map[string]interface{}, r rule, id string, field string) *big.Int {
	v, ok := r.find(obj)
	if !ok {
		return new(big.Int)
	}
	n, err := ParseBig(v)
	if err != nil {
		log.Debug().Err(err).Str("id", id).Str("field", field).Msg("Unparseable optional field, using zero")
		return new(big.Int)
	}
	return n
}

func optionalDecimal(obj map[string]interface{}, r rule, id string, field string) decimal.Decimal {
	v, ok := r.find(obj)
	if !ok {
		return decimal.Zero
	}
	return optionalDecimalValue(v, id, field)
}

func optionalDecimalValue(v interface{}, id string, field string) decimal.Decimal {
	d, err := ParseDecimal(v)
	if err != nil {
		log.Debug().Err(err).Str("id", id).Str("field", field).Msg("Unparseable optional field, using zero")
		return decimal.Zero
	}
	return d
}
