package publisher

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

const (
	DEFAULT_KAFKA_TOPIC = "explorer.events"
	relayKafka          = "kafka"
)

// KafkaPublisher relays hub events to a Kafka topic, keyed by entity hash.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	mu     sync.RWMutex
}

func NewKafkaPublisher(cfg *config.KafkaConfig) (*KafkaPublisher, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("no Kafka brokers configured")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DEFAULT_KAFKA_TOPIC
	}

	brokers := strings.Split(cfg.Brokers, ",")
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ClientID("explorer-indexer"),
		kgo.MaxBufferedRecords(100_000),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
		kgo.MetadataMaxAge(60 * time.Second),
		kgo.DialTimeout(10 * time.Second),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()))
		tlsDialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Kafka: %v", err)
	}
	log.Info().Str("topic", topic).Msg("Kafka relay connected")
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func newRecord(topic string, event common.Event) (*kgo.Record, error) {
	payload, err := event.Marshal()
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.Key()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(event.Type)},
		},
	}, nil
}

// Publish hands the record to the client buffer without waiting. A full
// buffer drops the event.
func (p *KafkaPublisher) Publish(event common.Event) {
	if event.Type == common.EventConnection {
		return
	}
	record, err := newRecord(p.topic, event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event for Kafka")
		metrics.RelayPublishFailures.WithLabelValues(relayKafka).Inc()
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return
	}

	start := time.Now()
	p.client.TryProduce(context.Background(), record, func(r *kgo.Record, err error) {
		metrics.RelayPublishDuration.WithLabelValues(relayKafka).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Error().Err(err).Str("key", string(r.Key)).Msg("Failed to publish event to Kafka")
			metrics.RelayPublishFailures.WithLabelValues(relayKafka).Inc()
		}
	})
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.client.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("Kafka flush incomplete")
		}
		p.client.Close()
		p.client = nil
		log.Debug().Msg("Kafka relay closed")
	}
	return nil
}
