package experiments

import (
	"baduk/experiments/metrics"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThroughput(t *testing.T) {
	moves := []metrics.MoveRecord{
		{Goroutines: 4, Simulations: 300, DurationUs: 500_000},
		{Goroutines: 1, Simulations: 100, DurationUs: 1_000_000},
		{Goroutines: 4, Simulations: 100, DurationUs: 500_000},
		{Goroutines: 1, Simulations: 0, DurationUs: 20}, // No search
	}
	require.Equal(t, []ThroughputSummary{
		{Goroutines: 1, Searches: 1, Simulations: 100, SimulationsPerSecond: 100},
		{Goroutines: 4, Searches: 2, Simulations: 400, SimulationsPerSecond: 400},
	}, Throughput(moves))

	require.Empty(t, Throughput(nil))
}
