package orchestrator

import (
	"time"

	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/storage"
)

const DEFAULT_AVERAGE_WINDOW = 100

// refreshAggregate recounts the network totals inside the current unit and
// stores them. Counting starts only once the unit holds the aggregate lock.
func refreshAggregate(unit storage.IUnit, window int) (common.NetworkAggregate, error) {
	if window <= 0 {
		window = DEFAULT_AVERAGE_WINDOW
	}

	if err := unit.LockAggregate(); err != nil {
		return common.NetworkAggregate{}, err
	}

	totalBlocks, err := unit.CountBlocks()
	if err != nil {
		return common.NetworkAggregate{}, err
	}
	totalTransactions, err := unit.CountTransactions()
	if err != nil {
		return common.NetworkAggregate{}, err
	}
	activeValidators, err := unit.CountActiveValidators()
	if err != nil {
		return common.NetworkAggregate{}, err
	}
	// window deltas need window+1 blocks
	recent, err := unit.RecentBlockTimes(window + 1)
	if err != nil {
		return common.NetworkAggregate{}, err
	}

	aggregate := common.NetworkAggregate{
		TotalBlocks:             totalBlocks,
		TotalTransactions:       totalTransactions,
		AverageBlockTimeSeconds: averageBlockTime(recent),
		ActiveValidatorCount:    activeValidators,
		UpdatedAt:               time.Now().UTC(),
	}
	return aggregate, unit.SaveNetworkAggregate(aggregate)
}

// averageBlockTime averages the timestamp difference of every pair of
// consecutive block numbers in times, which is ordered highest number first.
// Pairs spanning a gap in the stored heights are skipped.
func averageBlockTime(times []storage.BlockTime) float64 {
	var sum float64
	pairs := 0
	for i := 0; i+1 < len(times); i++ {
		newer, older := times[i], times[i+1]
		if newer.Number != older.Number+1 {
			continue
		}
		sum += float64(newer.Timestamp - older.Timestamp)
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
