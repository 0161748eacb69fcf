package experiments

import (
	"baduk/experiments/metrics"
	"sort"
)

type ThroughputSummary struct {
	Goroutines           int
	Searches             int
	Simulations          int
	SimulationsPerSecond float64
}

// Throughput aggregates search speed per goroutine count. Moves without a
// search (no simulations) are skipped.
func Throughput(moves []metrics.MoveRecord) []ThroughputSummary {
	type total struct {
		searches    int
		simulations int
		us          int64
	}
	totals := map[int]*total{}
	for _, m := range moves {
		if m.Simulations == 0 {
			continue
		}
		t, ok := totals[int(m.Goroutines)]
		if !ok {
			t = &total{}
			totals[int(m.Goroutines)] = t
		}
		t.searches++
		t.simulations += int(m.Simulations)
		t.us += m.DurationUs
	}

	summaries := make([]ThroughputSummary, 0, len(totals))
	for goroutines, t := range totals {
		s := ThroughputSummary{Goroutines: goroutines, Searches: t.searches, Simulations: t.simulations}
		if t.us > 0 {
			s.SimulationsPerSecond = float64(t.simulations) / (float64(t.us) / 1e6)
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Goroutines < summaries[j].Goroutines
	})
	return summaries
}
