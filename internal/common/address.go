package common

import (
	"github.com/shopspring/decimal"
)

type AddressDelta struct {
	Address       string
	BalanceAfter  *decimal.Decimal
	ReceivedDelta decimal.Decimal
	SentDelta     decimal.Decimal
	TxCountDelta  int64
}

type Address struct {
	Address       string          `json:"address"`
	Balance       decimal.Decimal `json:"balance"`
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalSent     decimal.Decimal `json:"total_sent"`
	TxCount       int64           `json:"tx_count"`
	FirstSeen     int64           `json:"first_seen"`
	LastSeen      int64           `json:"last_seen"`
}

// AddressDeltasFor derives the per-address effect of one transaction. A
// self-transfer yields a single delta carrying both sides. balances holds
// node-reported balances keyed by address and may be nil.
func AddressDeltasFor(tx Transaction, balances map[string]decimal.Decimal) []AddressDelta {
	deltas := make([]AddressDelta, 0, 2)
	byAddr := make(map[string]int, 2)

	add := func(addr string, received, sent decimal.Decimal) {
		if addr == "" {
			return
		}
		if i, ok := byAddr[addr]; ok {
			deltas[i].ReceivedDelta = deltas[i].ReceivedDelta.Add(received)
			deltas[i].SentDelta = deltas[i].SentDelta.Add(sent)
			return
		}
		d := AddressDelta{
			Address:       addr,
			ReceivedDelta: received,
			SentDelta:     sent,
			TxCountDelta:  1,
		}
		if bal, ok := balances[addr]; ok {
			b := bal
			d.BalanceAfter = &b
		}
		byAddr[addr] = len(deltas)
		deltas = append(deltas, d)
	}

	add(tx.Sender, decimal.Zero, tx.Amount)
	add(tx.Receiver, tx.Amount, decimal.Zero)
	return deltas
}
