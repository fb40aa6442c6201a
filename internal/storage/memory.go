package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
)

type memoryState struct {
	blocks       map[uint64]common.Block
	blockNumbers map[string]uint64
	transactions map[string]common.Transaction
	addresses    map[string]common.Address
	validators   map[string]common.Validator
	aggregate    common.NetworkAggregate
}

func newMemoryState() *memoryState {
	return &memoryState{
		blocks:       make(map[uint64]common.Block),
		blockNumbers: make(map[string]uint64),
		transactions: make(map[string]common.Transaction),
		addresses:    make(map[string]common.Address),
		validators:   make(map[string]common.Validator),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		blocks:       make(map[uint64]common.Block, len(s.blocks)),
		blockNumbers: make(map[string]uint64, len(s.blockNumbers)),
		transactions: make(map[string]common.Transaction, len(s.transactions)),
		addresses:    make(map[string]common.Address, len(s.addresses)),
		validators:   make(map[string]common.Validator, len(s.validators)),
		aggregate:    s.aggregate,
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	for k, v := range s.blockNumbers {
		c.blockNumbers[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.validators {
		c.validators[k] = v
	}
	return c
}

// MemoryConnector keeps the system of record in process memory. Units are
// serialized and run against a copy that replaces the state only on success.
type MemoryConnector struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryConnector(cfg *config.MemoryConfig) (*MemoryConnector, error) {
	return &MemoryConnector{state: newMemoryState()}, nil
}

func (m *MemoryConnector) Close() error {
	return nil
}

func (m *MemoryConnector) ExecuteUnit(ctx context.Context, fn func(unit IUnit) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return persistenceError("begin unit", err)
	}
	working := m.state.clone()
	if err := fn(&memoryUnit{state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return persistenceError("commit unit", err)
	}
	m.state = working
	return nil
}

func (m *MemoryConnector) GetMaxBlockNumber(ctx context.Context) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var maxNumber uint64
	found := false
	for number := range m.state.blocks {
		if !found || number > maxNumber {
			maxNumber = number
			found = true
		}
	}
	return maxNumber, found, nil
}

func (m *MemoryConnector) GetNetworkAggregate(ctx context.Context) (*common.NetworkAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	agg := m.state.aggregate
	return &agg, nil
}

func (m *MemoryConnector) GetBlock(number uint64) (common.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.state.blocks[number]
	return b, ok
}

func (m *MemoryConnector) GetTransaction(hash string) (common.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.state.transactions[hash]
	return tx, ok
}

func (m *MemoryConnector) GetAddress(address string) (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.state.addresses[address]
	return a, ok
}

func (m *MemoryConnector) GetValidator(address string) (common.Validator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.state.validators[address]
	return v, ok
}

type memoryUnit struct {
	state *memoryState
}

func (u *memoryUnit) UpsertBlock(block *common.Block) (bool, error) {
	if owner, ok := u.state.blockNumbers[block.Hash]; ok && owner != block.Number {
		return false, persistenceError("upsert block", fmt.Errorf("hash %s already stored for block %d", block.Hash, owner))
	}
	previous, existed := u.state.blocks[block.Number]
	if existed && previous.Hash != block.Hash {
		delete(u.state.blockNumbers, previous.Hash)
	}
	u.state.blocks[block.Number] = *block
	u.state.blockNumbers[block.Hash] = block.Number
	return !existed || previous.Hash != block.Hash, nil
}

func (u *memoryUnit) EnsureAddress(address string, seenAt int64) error {
	if _, ok := u.state.addresses[address]; ok {
		return nil
	}
	u.state.addresses[address] = common.Address{Address: address, FirstSeen: seenAt, LastSeen: seenAt}
	return nil
}

func (u *memoryUnit) UpsertTransaction(tx *common.Transaction) (bool, error) {
	previous, existed := u.state.transactions[tx.Hash]
	row := *tx
	if existed {
		if row.BlockNumber == nil {
			row.BlockNumber = previous.BlockNumber
		}
		if row.BlockHash == "" {
			row.BlockHash = previous.BlockHash
		}
		row.Status = common.SettleStatus(row.Status, row.InBlock())
	}
	u.state.transactions[tx.Hash] = row
	return !existed, nil
}

func (u *memoryUnit) ApplyAddressDelta(delta common.AddressDelta, seenAt int64) error {
	a, ok := u.state.addresses[delta.Address]
	if !ok {
		a = common.Address{Address: delta.Address, FirstSeen: seenAt}
	}
	a.TotalReceived = a.TotalReceived.Add(delta.ReceivedDelta)
	a.TotalSent = a.TotalSent.Add(delta.SentDelta)
	a.TxCount += delta.TxCountDelta
	if delta.BalanceAfter != nil {
		a.Balance = *delta.BalanceAfter
	} else {
		a.Balance = a.Balance.Add(delta.ReceivedDelta).Sub(delta.SentDelta)
	}
	if seenAt > a.LastSeen {
		a.LastSeen = seenAt
	}
	u.state.addresses[delta.Address] = a
	return nil
}

func (u *memoryUnit) IncrementValidatorBlocks(address string, delta int64) error {
	v, ok := u.state.validators[address]
	if !ok {
		v = common.Validator{Address: address, Active: true}
	}
	v.BlocksValidated += delta
	u.state.validators[address] = v
	return nil
}

func (u *memoryUnit) UpsertValidatorSnapshot(stat common.ValidatorStat) error {
	v := u.state.validators[stat.Address]
	v.Address = stat.Address
	v.Stake = stat.Stake
	v.Uptime = stat.Uptime
	v.Score = stat.Score
	v.Active = stat.Active
	u.state.validators[stat.Address] = v
	return nil
}

func (u *memoryUnit) RecentBlockTimes(limit int) ([]BlockTime, error) {
	times := make([]BlockTime, 0, len(u.state.blocks))
	for number, b := range u.state.blocks {
		times = append(times, BlockTime{Number: number, Timestamp: b.Timestamp})
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Number > times[j].Number })
	if limit >= 0 && len(times) > limit {
		times = times[:limit]
	}
	return times, nil
}

func (u *memoryUnit) CountBlocks() (uint64, error) {
	return uint64(len(u.state.blocks)), nil
}

func (u *memoryUnit) CountTransactions() (uint64, error) {
	return uint64(len(u.state.transactions)), nil
}

func (u *memoryUnit) CountActiveValidators() (uint64, error) {
	var n uint64
	for _, v := range u.state.validators {
		if v.Active {
			n++
		}
	}
	return n, nil
}

// LockAggregate is a no-op, memory units already run one at a time.
func (u *memoryUnit) LockAggregate() error {
	return nil
}

func (u *memoryUnit) SaveNetworkAggregate(aggregate common.NetworkAggregate) error {
	u.state.aggregate = aggregate
	return nil
}
