package common

import (
	"math/big"
)

type Block struct {
	Number           uint64   `json:"number"`
	Hash             string   `json:"hash"`
	ParentHash       string   `json:"parent_hash"`
	Timestamp        int64    `json:"timestamp"`
	ProducerPoW      string   `json:"producer_pow,omitempty"`
	ProducerPoS      string   `json:"producer_pos,omitempty"`
	Difficulty       *big.Int `json:"difficulty"`
	TotalDifficulty  *big.Int `json:"total_difficulty"`
	SizeBytes        uint64   `json:"size_bytes"`
	GasUsed          uint64   `json:"gas_used"`
	GasLimit         uint64   `json:"gas_limit"`
	Nonce            string   `json:"nonce"`
	MerkleRoot       string   `json:"merkle_root"`
	StateRoot        string   `json:"state_root"`
	ReceiptsRoot     string   `json:"receipts_root"`
	TransactionCount uint64   `json:"transaction_count"`
}

// BlockData is a block together with the transactions it carries.
type BlockData struct {
	Block        Block
	Transactions []Transaction
}

// Producer returns the validator when one is recorded, falling back to the miner.
func (b *Block) Producer() string {
	if b.ProducerPoS != "" {
		return b.ProducerPoS
	}
	return b.ProducerPoW
}

func (b *Block) HasProducer() bool {
	return b.ProducerPoS != "" || b.ProducerPoW != ""
}
