package normalizer

// Alias rules map one canonical field to the payload keys the node has been
// seen to use for it. Keys are tried in order and the first present, non-empty
// value wins. A dotted key walks into nested objects.
type rule []string

var (
	blockNumberRule      = rule{"header.BlockNumber", "number", "block_number", "height", "blockHeight"}
	blockHashRule        = rule{"hash", "block_hash", "header.Hash", "blockHash"}
	blockParentRule      = rule{"header.PreviousHash", "parentHash", "parent_hash", "previousHash"}
	blockTimestampRule   = rule{"header.Timestamp", "timestamp", "time"}
	blockMinerRule       = rule{"header.MinedBy", "miner", "minedBy", "mined_by"}
	blockValidatorRule   = rule{"header.ValidatedBy", "validator", "validatedBy", "validated_by"}
	blockDifficultyRule  = rule{"header.Difficulty", "difficulty"}
	blockTotalDiffRule   = rule{"cumulativeDifficulty", "totalDifficulty", "total_difficulty"}
	blockSizeRule        = rule{"size", "sizeBytes", "header.Size"}
	blockGasUsedRule     = rule{"header.GasUsed", "gasUsed", "gas_used"}
	blockGasLimitRule    = rule{"header.GasLimit", "gasLimit", "gas_limit"}
	blockNonceRule       = rule{"header.Nonce", "nonce"}
	blockMerkleRule      = rule{"header.MerkleRoot", "merkleRoot", "transactionsRoot"}
	blockStateRootRule   = rule{"header.StateRoot", "stateRoot"}
	blockReceiptsRule    = rule{"header.ReceiptsRoot", "receiptsRoot"}
	blockTransactionRule = rule{"body.transactions.txList", "transactions", "body.transactions", "txs"}
)

var (
	txHashRule        = rule{"txid", "TransactionID", "hash", "tx_hash"}
	txSenderRule      = rule{"from", "Sender", "sender"}
	txReceiverRule    = rule{"to", "Receiver", "receiver"}
	txAmountRule      = rule{"amount", "Amount", "value"}
	txBlockHashRule   = rule{"blockHash", "BlockHash", "block_hash"}
	txBlockNumberRule = rule{"blockHeight", "BlockNumber", "blockNumber", "block_number"}
	txFeeRule         = rule{"fee", "Fee", "gas_fee"}
	txGasPriceRule    = rule{"gasPrice", "GasPrice", "gas_price"}
	txGasUsedRule     = rule{"gasUsed", "GasUsed", "gas_used"}
	txGasLimitRule    = rule{"gas", "GasLimit", "gasLimit", "gas_limit"}
	txKindRule        = rule{"type", "Type", "TxType"}
	txTimestampRule   = rule{"timestamp", "Timestamp"}
	txDataRule        = rule{"data", "Data", "input"}
	txStatusRule      = rule{"status", "Status"}
	txConfirmedRule   = rule{"confirmed", "Confirmed"}
)

var (
	balanceRule = rule{"balance", "amount"}

	chainHeightRule     = rule{"height", "blockNumber", "blockCount", "blocks", "BlockHeight", "latestBlock", "number"}
	chainBestHashRule   = rule{"bestBlockHash", "latestBlockHash", "bestHash", "hash"}
	chainDifficultyRule = rule{"difficulty", "Difficulty"}

	validatorListRule    = rule{"validators", "Validators", "list"}
	validatorAddressRule = rule{"address", "Address", "validator"}
	validatorStakeRule   = rule{"stake", "Stake", "stakeAmount"}
	validatorUptimeRule  = rule{"uptime", "Uptime"}
	validatorScoreRule   = rule{"score", "Score", "reputation"}
	validatorActiveRule  = rule{"active", "Active", "isActive", "status"}
)

func (r rule) find(obj map[string]interface{}) (interface{}, bool) {
	for _, path := range r {
		if v, ok := lookupPath(obj, path); ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func (r rule) str(obj map[string]interface{}) string {
	v, ok := r.find(obj)
	if !ok {
		return ""
	}
	return interfaceToString(v)
}

func lookupPath(obj map[string]interface{}, path string) (interface{}, bool) {
	cur := obj
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		key := path[start:i]
		v, ok := cur[key]
		if !ok {
			return nil, false
		}
		if i == len(path) {
			return v, true
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur = next
		start = i + 1
	}
	return nil, false
}

func present(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	}
	return true
}

var (
	notifyBlockHashRule   = rule{"block_hash", "hash"}
	notifyBlockNumberRule = rule{"block_number", "number"}
	notifyTimestampRule   = rule{"timestamp"}
	notifyTxHashRule      = rule{"hash", "tx_hash", "TransactionID"}
)
