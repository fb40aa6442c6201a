package common

import (
	"time"

	"github.com/shopspring/decimal"
)

type ValidatorStat struct {
	Address              string          `json:"address"`
	BlocksValidatedDelta int64           `json:"blocks_validated_delta"`
	Stake                decimal.Decimal `json:"stake"`
	Uptime               float64         `json:"uptime"`
	Score                float64         `json:"score"`
	Active               bool            `json:"active"`
}

type NetworkAggregate struct {
	TotalBlocks             uint64    `json:"total_blocks"`
	TotalTransactions       uint64    `json:"total_transactions"`
	AverageBlockTimeSeconds float64   `json:"average_block_time"`
	ActiveValidatorCount    uint64    `json:"active_validators"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type ChainInfo struct {
	Height     uint64 `json:"height"`
	BestHash   string `json:"best_hash,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Validator is the persisted validator row.
type Validator struct {
	Address         string          `json:"address"`
	BlocksValidated int64           `json:"blocks_validated"`
	Stake           decimal.Decimal `json:"stake"`
	Uptime          float64         `json:"uptime"`
	Score           float64         `json:"score"`
	Active          bool            `json:"active"`
}
