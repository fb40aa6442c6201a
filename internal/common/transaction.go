package common

import (
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusUnknown   TransactionStatus = "unknown"
)

func ParseTransactionStatus(s string) TransactionStatus {
	switch TransactionStatus(s) {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusFailed:
		return TransactionStatus(s)
	case "success", "succeeded", "mined":
		return TransactionStatusConfirmed
	case "error", "reverted":
		return TransactionStatusFailed
	}
	return TransactionStatusUnknown
}

type Transaction struct {
	Hash        string            `json:"hash"`
	BlockNumber *uint64           `json:"block_number"`
	BlockHash   string            `json:"block_hash"`
	Sender      string            `json:"sender"`
	Receiver    string            `json:"receiver,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	FeePaid     decimal.Decimal   `json:"fee_paid"`
	GasPrice    decimal.Decimal   `json:"gas_price"`
	GasLimit    uint64            `json:"gas_limit"`
	GasUsed     uint64            `json:"gas_used"`
	Kind        string            `json:"kind"`
	Data        string            `json:"data,omitempty"`
	Timestamp   int64             `json:"timestamp"`
	Status      TransactionStatus `json:"status"`
}

// SettleStatus confirms a pending or unknown transaction once it sits in a block.
func SettleStatus(status TransactionStatus, inBlock bool) TransactionStatus {
	if inBlock && (status == TransactionStatusPending || status == TransactionStatusUnknown) {
		return TransactionStatusConfirmed
	}
	return status
}

// InBlock reports whether the transaction has been placed in a block.
func (t *Transaction) InBlock() bool {
	return t.BlockNumber != nil
}

// Participants lists the distinct addresses touched by the transaction, sender first.
func (t *Transaction) Participants() []string {
	addrs := make([]string, 0, 2)
	if t.Sender != "" {
		addrs = append(addrs, t.Sender)
	}
	if t.Receiver != "" && t.Receiver != t.Sender {
		addrs = append(addrs, t.Receiver)
	}
	return addrs
}
