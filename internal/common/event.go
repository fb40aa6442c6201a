package common

import (
	"encoding/json"
)

type EventType string

const (
	EventConnection     EventType = "connection"
	EventNewBlock       EventType = "new_block"
	EventNewTransaction EventType = "new_transaction"
)

const ConnectionMessage = "Connected to Supereum Explorer WebSocket server"

// Event is the envelope written to subscribers: {"event": ..., "data": {...}}.
type Event struct {
	Type EventType   `json:"event"`
	Data interface{} `json:"data"`
}

type ConnectionData struct {
	ClientID string `json:"clientId"`
	Message  string `json:"message"`
}

type NewBlockData struct {
	Hash      string `json:"hash"`
	Number    uint64 `json:"number"`
	Producer  string `json:"producer"`
	TxCount   uint64 `json:"txCount"`
	Timestamp int64  `json:"timestamp"`
}

type NewTransactionData struct {
	Hash     string `json:"hash"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

func NewConnectionEvent(clientID string) Event {
	return Event{Type: EventConnection, Data: ConnectionData{ClientID: clientID, Message: ConnectionMessage}}
}

func NewBlockEvent(b *Block) Event {
	return Event{Type: EventNewBlock, Data: NewBlockData{
		Hash:      b.Hash,
		Number:    b.Number,
		Producer:  b.Producer(),
		TxCount:   b.TransactionCount,
		Timestamp: b.Timestamp,
	}}
}

func NewTransactionEvent(tx *Transaction) Event {
	return Event{Type: EventNewTransaction, Data: NewTransactionData{
		Hash:     tx.Hash,
		Sender:   tx.Sender,
		Receiver: tx.Receiver,
		Amount:   tx.Amount.String(),
	}}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Key is used as the partition key by relays; events of one entity stay ordered.
func (e Event) Key() string {
	switch d := e.Data.(type) {
	case NewBlockData:
		return d.Hash
	case NewTransactionData:
		return d.Hash
	case ConnectionData:
		return d.ClientID
	}
	return string(e.Type)
}
