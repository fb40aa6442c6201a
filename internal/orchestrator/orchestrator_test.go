package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/storage"
	"github.com/supereum/explorer-indexer/test/mocks"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []common.Event
}

func (p *recordingPublisher) Publish(event common.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) snapshot() []common.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]common.Event(nil), p.events...)
}

func blockAtHeight(n uint64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"hash": "0x%02x", "number": %d, "timestamp": %d, "miner": "0xM"}`, n, n, 1700000000+n*10))
}

func newTestOrchestrator(t *testing.T, opts ...OrchestratorOption) (*Orchestrator, *mocks.MockIRPCClient, *storage.MemoryConnector, *recordingPublisher) {
	mockRPC := mocks.NewMockIRPCClient(t)
	memory := newTestMemory(t)
	publisher := &recordingPublisher{}
	opts = append([]OrchestratorOption{WithPublishers(publisher), WithTrackers(false, false), WithInitialSyncBlocks(-1)}, opts...)
	o := NewOrchestrator(mockRPC, storage.IStorage{MainStorage: memory}, opts...)
	o.coordinator.fetchBalances = false
	return o, mockRPC, memory, publisher
}

func TestOrchestrator_HintsArePublished(t *testing.T) {
	o, mockRPC, memory, publisher := newTestOrchestrator(t)

	hints := make(chan common.Hint, 3)
	hints <- common.Hint{Kind: common.HintKindBlock, Hash: "0xAA", Source: common.HintSourcePush}
	hints <- common.Hint{Kind: common.HintKindTransaction, Hash: "0xT5", Source: common.HintSourcePush}
	hints <- common.Hint{Kind: common.HintKindBlock, Hash: "0xMISSING", Source: common.HintSourcePoll}
	close(hints)

	mockRPC.On("StreamNotifications", mock.Anything).Return((<-chan common.Hint)(hints))
	mockRPC.On("FetchBlockByHash", mock.Anything, "0xAA").Return(json.RawMessage(scenarioBlock), nil)
	mockRPC.On("FetchBlockByHash", mock.Anything, "0xMISSING").Return(nil, fmt.Errorf("lookup: %w", common.ErrNotFound))
	mockRPC.On("FetchTransaction", mock.Anything, "0xT5").
		Return(json.RawMessage(`{"txid": "0xT5", "from": "0xC", "to": "0xD", "amount": "1"}`), nil)

	require.NoError(t, o.Start(context.Background()))

	events := publisher.snapshot()
	require.Len(t, events, 2)
	types := []common.EventType{events[0].Type, events[1].Type}
	assert.ElementsMatch(t, []common.EventType{common.EventNewBlock, common.EventNewTransaction}, types)

	for _, e := range events {
		if e.Type == common.EventNewBlock {
			data := e.Data.(common.NewBlockData)
			assert.Equal(t, "0xAA", data.Hash)
			assert.Equal(t, uint64(42), data.Number)
			assert.Equal(t, "0xV1", data.Producer)
			assert.Equal(t, uint64(1), data.TxCount)
		}
	}

	_, ok := memory.GetTransaction("0xT5")
	assert.True(t, ok)
}

func TestOrchestrator_InitialSync(t *testing.T) {
	o, mockRPC, memory, publisher := newTestOrchestrator(t, WithInitialSyncBlocks(10))

	hints := make(chan common.Hint)
	close(hints)
	mockRPC.On("GetLatestBlockNumber", mock.Anything).Return(uint64(2), nil)
	for n := uint64(0); n <= 2; n++ {
		mockRPC.On("FetchBlockByHeight", mock.Anything, n).Return(blockAtHeight(n), nil)
	}
	mockRPC.On("StreamNotifications", mock.Anything).Return((<-chan common.Hint)(hints))

	require.NoError(t, o.Start(context.Background()))

	for n := uint64(0); n <= 2; n++ {
		_, ok := memory.GetBlock(n)
		assert.True(t, ok, "block %d", n)
	}
	assert.Len(t, publisher.snapshot(), 3)
	aggregate, _ := memory.GetNetworkAggregate(context.Background())
	assert.Equal(t, uint64(3), aggregate.TotalBlocks)
	assert.InDelta(t, 10.0, aggregate.AverageBlockTimeSeconds, 1e-9)
}

func TestOrchestrator_InitialSyncCapsAtConfiguredBlocks(t *testing.T) {
	o, mockRPC, memory, _ := newTestOrchestrator(t, WithInitialSyncBlocks(1))

	hints := make(chan common.Hint)
	close(hints)
	mockRPC.On("GetLatestBlockNumber", mock.Anything).Return(uint64(500), nil)
	mockRPC.On("FetchBlockByHeight", mock.Anything, uint64(0)).Return(blockAtHeight(0), nil)
	mockRPC.On("FetchBlockByHeight", mock.Anything, uint64(1)).Return(blockAtHeight(1), nil)
	mockRPC.On("StreamNotifications", mock.Anything).Return((<-chan common.Hint)(hints))

	require.NoError(t, o.Start(context.Background()))

	maxNumber, found, err := memory.GetMaxBlockNumber(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(1), maxNumber)
}

func TestOrchestrator_Backfill(t *testing.T) {
	o, mockRPC, memory, publisher := newTestOrchestrator(t)
	mockRPC.On("FetchBlockByHeight", mock.Anything, uint64(5)).Return(blockAtHeight(5), nil)
	mockRPC.On("FetchBlockByHeight", mock.Anything, uint64(6)).Return(nil, fmt.Errorf("lookup: %w", common.ErrNotFound))
	mockRPC.On("FetchBlockByHeight", mock.Anything, uint64(7)).Return(blockAtHeight(7), nil)

	err := o.Backfill(context.Background(), 5, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 blocks failed")

	_, ok := memory.GetBlock(5)
	assert.True(t, ok)
	_, ok = memory.GetBlock(6)
	assert.False(t, ok)
	_, ok = memory.GetBlock(7)
	assert.True(t, ok)
	assert.Len(t, publisher.snapshot(), 2)

	assert.Error(t, o.Backfill(context.Background(), 7, 5))
}

func TestValidatorTracker_Sync(t *testing.T) {
	mockRPC := mocks.NewMockIRPCClient(t)
	memory := newTestMemory(t)
	tracker := NewValidatorTracker(mockRPC, storage.IStorage{MainStorage: memory})

	mockRPC.On("FetchValidatorSnapshot", mock.Anything).Return([]common.ValidatorStat{
		{Address: "0xV1", Stake: decimal.NewFromInt(1000), Uptime: 99.5, Score: 10, Active: true},
		{Address: "0xV2", Stake: decimal.NewFromInt(5), Active: false},
	}, nil).Once()

	require.NoError(t, tracker.Sync(context.Background()))

	v1, ok := memory.GetValidator("0xV1")
	require.True(t, ok)
	assert.True(t, v1.Stake.Equal(decimal.NewFromInt(1000)))
	assert.True(t, v1.Active)
	v2, ok := memory.GetValidator("0xV2")
	require.True(t, ok)
	assert.False(t, v2.Active)

	aggregate, _ := memory.GetNetworkAggregate(context.Background())
	assert.Equal(t, uint64(1), aggregate.ActiveValidatorCount)
}

func TestValidatorTracker_SnapshotKeepsBlockCounts(t *testing.T) {
	mockRPC := mocks.NewMockIRPCClient(t)
	memory := newTestMemory(t)
	c := NewCoordinator(mockRPC, storage.IStorage{MainStorage: memory}, WithBalanceFetching(false))
	tracker := NewValidatorTracker(mockRPC, storage.IStorage{MainStorage: memory})

	mockRPC.On("FetchBlockByHash", mock.Anything, "0xAA").Return(json.RawMessage(scenarioBlock), nil)
	mockRPC.On("FetchValidatorSnapshot", mock.Anything).Return([]common.ValidatorStat{
		{Address: "0xV1", Stake: decimal.NewFromInt(7), Active: true},
	}, nil)

	_, err := c.IngestBlock(context.Background(), "0xAA")
	require.NoError(t, err)
	require.NoError(t, tracker.Sync(context.Background()))

	v1, _ := memory.GetValidator("0xV1")
	assert.Equal(t, int64(1), v1.BlocksValidated)
	assert.True(t, v1.Stake.Equal(decimal.NewFromInt(7)))
}

func TestChainTracker_Track(t *testing.T) {
	mockRPC := mocks.NewMockIRPCClient(t)
	mockRPC.On("FetchChainInfo", mock.Anything).Return(&common.ChainInfo{Height: 77, BestHash: "0xBEST"}, nil).Once()
	mockRPC.On("FetchChainInfo", mock.Anything).Return(nil, fmt.Errorf("down: %w", common.ErrTransport)).Once()

	tracker := NewChainTracker(mockRPC)
	tracker.track(context.Background())
	tracker.track(context.Background())
	mockRPC.AssertNumberOfCalls(t, "FetchChainInfo", 2)
}
