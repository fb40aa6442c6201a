package storage

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
)

func newTestMemory(t *testing.T) *MemoryConnector {
	m, err := NewMemoryConnector(&config.MemoryConfig{Enabled: true})
	require.NoError(t, err)
	return m
}

func TestMemoryConnector_UpsertBlockReportsChange(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	block := &common.Block{Number: 1, Hash: "0x01", Difficulty: big.NewInt(1)}

	var changed bool
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		changed, err = u.UpsertBlock(block)
		return err
	}))
	assert.True(t, changed)

	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		changed, err = u.UpsertBlock(block)
		return err
	}))
	assert.False(t, changed)

	replaced := &common.Block{Number: 1, Hash: "0x01b"}
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		changed, err = u.UpsertBlock(replaced)
		return err
	}))
	assert.True(t, changed)

	stored, ok := m.GetBlock(1)
	require.True(t, ok)
	assert.Equal(t, "0x01b", stored.Hash)
}

func TestMemoryConnector_DuplicateHashUnderOtherNumber(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) error {
		_, err := u.UpsertBlock(&common.Block{Number: 1, Hash: "0xAA"})
		return err
	}))
	err := m.ExecuteUnit(ctx, func(u IUnit) error {
		_, err := u.UpsertBlock(&common.Block{Number: 2, Hash: "0xAA"})
		return err
	})
	assert.True(t, errors.Is(err, common.ErrPersistence))
}

func TestMemoryConnector_FailedUnitLeavesNoTrace(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.ExecuteUnit(ctx, func(u IUnit) error {
		if _, err := u.UpsertBlock(&common.Block{Number: 9, Hash: "0x09"}); err != nil {
			return err
		}
		if err := u.EnsureAddress("0xA", 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := m.GetBlock(9)
	assert.False(t, ok)
	_, ok = m.GetAddress("0xA")
	assert.False(t, ok)
	_, found, err := m.GetMaxBlockNumber(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryConnector_AddressDeltas(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) error {
		require.NoError(t, u.EnsureAddress("0xA", 100))
		require.NoError(t, u.ApplyAddressDelta(common.AddressDelta{
			Address: "0xA", ReceivedDelta: decimal.NewFromInt(50), TxCountDelta: 1,
		}, 100))
		return u.ApplyAddressDelta(common.AddressDelta{
			Address: "0xA", SentDelta: decimal.NewFromInt(20), TxCountDelta: 1,
		}, 120)
	}))

	a, ok := m.GetAddress("0xA")
	require.True(t, ok)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(30)))
	assert.True(t, a.TotalReceived.Equal(decimal.NewFromInt(50)))
	assert.True(t, a.TotalSent.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(2), a.TxCount)
	assert.Equal(t, int64(100), a.FirstSeen)
	assert.Equal(t, int64(120), a.LastSeen)

	authoritative := decimal.NewFromInt(999)
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) error {
		return u.ApplyAddressDelta(common.AddressDelta{
			Address: "0xA", BalanceAfter: &authoritative, SentDelta: decimal.NewFromInt(1), TxCountDelta: 1,
		}, 130)
	}))
	a, _ = m.GetAddress("0xA")
	assert.True(t, a.Balance.Equal(authoritative))
	assert.True(t, a.TotalSent.Equal(decimal.NewFromInt(21)))
}

func TestMemoryConnector_TransactionUpsert(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	number := uint64(4)

	var created bool
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		created, err = u.UpsertTransaction(&common.Transaction{Hash: "0xT", BlockNumber: &number, BlockHash: "0x04", Status: common.TransactionStatusConfirmed})
		return err
	}))
	assert.True(t, created)

	// a later standalone fetch without block context keeps the known block
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		created, err = u.UpsertTransaction(&common.Transaction{Hash: "0xT", Status: common.TransactionStatusUnknown})
		return err
	}))
	assert.False(t, created)
	tx, _ := m.GetTransaction("0xT")
	require.NotNil(t, tx.BlockNumber)
	assert.Equal(t, uint64(4), *tx.BlockNumber)
	assert.Equal(t, "0x04", tx.BlockHash)
	assert.Equal(t, common.TransactionStatusConfirmed, tx.Status)

	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		_, err = u.UpsertTransaction(&common.Transaction{Hash: "0xT", Status: common.TransactionStatusPending})
		return err
	}))
	tx, _ = m.GetTransaction("0xT")
	assert.Equal(t, common.TransactionStatusConfirmed, tx.Status)

	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) (err error) {
		_, err = u.UpsertTransaction(&common.Transaction{Hash: "0xT", Status: common.TransactionStatusFailed})
		return err
	}))
	tx, _ = m.GetTransaction("0xT")
	assert.Equal(t, common.TransactionStatusFailed, tx.Status)
}

func TestMemoryConnector_Validators(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) error {
		require.NoError(t, u.IncrementValidatorBlocks("0xV1", 1))
		require.NoError(t, u.IncrementValidatorBlocks("0xV1", 1))
		require.NoError(t, u.UpsertValidatorSnapshot(common.ValidatorStat{Address: "0xV1", Stake: decimal.NewFromInt(10), Uptime: 99, Active: true}))
		return u.UpsertValidatorSnapshot(common.ValidatorStat{Address: "0xV2", Active: false})
	}))

	v, ok := m.GetValidator("0xV1")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.BlocksValidated)
	assert.True(t, v.Stake.Equal(decimal.NewFromInt(10)))

	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) error {
		n, err := u.CountActiveValidators()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
		return nil
	}))
}

func TestMemoryConnector_RecentBlockTimes(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	require.NoError(t, m.ExecuteUnit(ctx, func(u IUnit) error {
		for i := uint64(1); i <= 5; i++ {
			if _, err := u.UpsertBlock(&common.Block{Number: i, Hash: string(rune('a' + i)), Timestamp: int64(i * 10)}); err != nil {
				return err
			}
		}
		times, err := u.RecentBlockTimes(3)
		require.NoError(t, err)
		assert.Equal(t, []BlockTime{{5, 50}, {4, 40}, {3, 30}}, times)
		return nil
	}))

	maxNumber, found, err := m.GetMaxBlockNumber(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(5), maxNumber)
}

func TestNewConnector_SelectsDriver(t *testing.T) {
	conn, err := NewConnector[IMainStorage](&config.StorageConnectionConfig{Memory: &config.MemoryConfig{Enabled: true}})
	require.NoError(t, err)
	_, isMemory := conn.(*MemoryConnector)
	assert.True(t, isMemory)

	_, err = NewConnector[IMainStorage](&config.StorageConnectionConfig{})
	assert.Error(t, err)
}
