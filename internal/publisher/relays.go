package publisher

import (
	"fmt"

	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
)

// Relay forwards hub events to another process.
type Relay interface {
	Publish(event common.Event)
	Close() error
}

// NewRelays connects every relay enabled in cfg. On error the relays that
// were already connected are closed.
func NewRelays(cfg *config.PublisherConfig) ([]Relay, error) {
	var relays []Relay
	fail := func(err error) ([]Relay, error) {
		CloseAll(relays)
		return nil, err
	}

	if cfg.Kafka.Enabled {
		kafka, err := NewKafkaPublisher(&cfg.Kafka)
		if err != nil {
			return fail(fmt.Errorf("kafka relay: %w", err))
		}
		relays = append(relays, kafka)
	}
	if cfg.Redis.Enabled {
		redis, err := NewRedisPublisher(&cfg.Redis)
		if err != nil {
			return fail(fmt.Errorf("redis relay: %w", err))
		}
		relays = append(relays, redis)
	}

	if len(relays) == 0 {
		log.Debug().Msg("No event relays enabled")
	}
	return relays, nil
}

func CloseAll(relays []Relay) {
	for _, r := range relays {
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing relay")
		}
	}
}
