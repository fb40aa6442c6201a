package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
)

type fakeRedis struct {
	mu       sync.Mutex
	channels []string
	messages [][]byte
	err      error
	closed   bool
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.channels = append(f.channels, channel)
	f.messages = append(f.messages, message.([]byte))
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRedis) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestRedisPublisher_RelaysEnvelope(t *testing.T) {
	client := &fakeRedis{}
	p := newRedisPublisher(client, "", 8)
	defer p.Close()

	p.Publish(common.NewConnectionEvent("client-1"))
	p.Publish(common.NewBlockEvent(&common.Block{Number: 42, Hash: "0xAA", ProducerPoS: "0xV1", TransactionCount: 1}))

	require.Eventually(t, func() bool { return client.count() == 1 }, time.Second, 10*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, DEFAULT_REDIS_CHANNEL, client.channels[0])
	var envelope struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(client.messages[0], &envelope))
	assert.Equal(t, "new_block", envelope.Event)
	assert.Equal(t, "0xAA", envelope.Data["hash"])
	assert.Equal(t, "0xV1", envelope.Data["producer"])
}

func TestRedisPublisher_ErrorsDoNotStopRelay(t *testing.T) {
	client := &fakeRedis{err: errors.New("connection refused")}
	p := newRedisPublisher(client, "events", 8)
	defer p.Close()

	p.Publish(common.NewBlockEvent(&common.Block{Number: 1, Hash: "0x1"}))
	time.Sleep(50 * time.Millisecond)

	client.mu.Lock()
	client.err = nil
	client.mu.Unlock()

	p.Publish(common.NewBlockEvent(&common.Block{Number: 2, Hash: "0x2"}))
	require.Eventually(t, func() bool { return client.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRedisPublisher_CloseStopsPublishing(t *testing.T) {
	client := &fakeRedis{}
	p := newRedisPublisher(client, "events", 8)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	p.Publish(common.NewBlockEvent(&common.Block{Number: 1, Hash: "0x1"}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, client.count())
	assert.True(t, client.closed)
}

func TestNewRecord_KeyedByHash(t *testing.T) {
	record, err := newRecord("events", common.NewBlockEvent(&common.Block{Number: 7, Hash: "0xB7"}))
	require.NoError(t, err)
	assert.Equal(t, "events", record.Topic)
	assert.Equal(t, "0xB7", string(record.Key))
	require.Len(t, record.Headers, 1)
	assert.Equal(t, "new_block", string(record.Headers[0].Value))

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(record.Value, &envelope))
	assert.Equal(t, "new_block", envelope["event"])
}

func TestNewRelays_NoneEnabled(t *testing.T) {
	relays, err := NewRelays(&config.PublisherConfig{})
	require.NoError(t, err)
	assert.Empty(t, relays)
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(&config.KafkaConfig{Enabled: true})
	assert.Error(t, err)
}
