package publisher

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
)

const (
	DEFAULT_REDIS_CHANNEL    = "explorer:events"
	DEFAULT_REDIS_QUEUE_SIZE = 1024
	relayRedis               = "redis"
)

type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher relays hub events on a Redis pub/sub channel. Events are
// queued and sent by a single goroutine so Publish never waits on Redis.
type RedisPublisher struct {
	client  redisPublishClient
	channel string
	queue   chan common.Event
	done    chan struct{}
	once    sync.Once
}

func NewRedisPublisher(cfg *config.RedisConfig) (*RedisPublisher, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("channel", cfg.Channel).Msg("Redis relay connected")
	return newRedisPublisher(client, cfg.Channel, DEFAULT_REDIS_QUEUE_SIZE), nil
}

func newRedisPublisher(client redisPublishClient, channel string, queueSize int) *RedisPublisher {
	if channel == "" {
		channel = DEFAULT_REDIS_CHANNEL
	}
	p := &RedisPublisher{
		client:  client,
		channel: channel,
		queue:   make(chan common.Event, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *RedisPublisher) Publish(event common.Event) {
	if event.Type == common.EventConnection {
		return
	}
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.queue <- event:
	default:
		log.Warn().Str("event", string(event.Type)).Msg("Redis relay queue full, dropping event")
		metrics.RelayPublishFailures.WithLabelValues(relayRedis).Inc()
	}
}

func (p *RedisPublisher) run() {
	for {
		select {
		case <-p.done:
			return
		case event := <-p.queue:
			p.send(event)
		}
	}
}

func (p *RedisPublisher) send(event common.Event) {
	payload, err := event.Marshal()
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event for Redis")
		metrics.RelayPublishFailures.WithLabelValues(relayRedis).Inc()
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Error().Err(err).Str("key", event.Key()).Msg("Failed to publish event to Redis")
		metrics.RelayPublishFailures.WithLabelValues(relayRedis).Inc()
	}
	metrics.RelayPublishDuration.WithLabelValues(relayRedis).Observe(time.Since(start).Seconds())
}

func (p *RedisPublisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.done)
		err = p.client.Close()
	})
	return err
}
