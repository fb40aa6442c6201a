package orchestrator

import (
	"strconv"

	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
)

// inFlightSet holds the hashes currently being ingested. A hash can be
// claimed by one caller at a time.
type inFlightSet struct {
	keys *common.Set[string]
}

func newInFlightSet() *inFlightSet {
	return &inFlightSet{keys: common.NewSet[string]()}
}

func (s *inFlightSet) acquire(key string) bool {
	if !s.keys.TryAdd(key) {
		return false
	}
	metrics.InFlight.Inc()
	return true
}

func (s *inFlightSet) release(key string) {
	s.keys.Remove(key)
	metrics.InFlight.Dec()
}

func (s *inFlightSet) size() int {
	return s.keys.Size()
}

func blockKey(hash string) string {
	return "block:" + hash
}

func heightKey(height uint64) string {
	return "height:" + strconv.FormatUint(height, 10)
}

func transactionKey(hash string) string {
	return "tx:" + hash
}
