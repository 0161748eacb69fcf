package engine

import (
	"baduk/experiments/metrics"
	"baduk/game"
	"baduk/searcher"
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
)

// Baseline plays the move chosen by plain MCTS with random rollouts.
type Baseline struct {
	NopHooks
	mcts        *searcher.MCTS
	name        string
	temperature float64
	rng         *rand.Rand
	last        metrics.SearchMetric
}

// NewBaseline returns an engine that plays the most visited move.
func NewBaseline(mcts *searcher.MCTS) *Baseline {
	return &Baseline{mcts: mcts, name: fmt.Sprintf("Baseline-MCTS-%d", mcts.Simulations())}
}

// NewSelfPlay returns an engine that samples moves in proportion to
// visits^(1/temperature), for varied self-play games.
func NewSelfPlay(mcts *searcher.MCTS, temperature float64, seed uint64) *Baseline {
	if temperature <= 0 {
		panic("temperature must be positive")
	}
	b := NewBaseline(mcts)
	b.name = fmt.Sprintf("SelfPlay-MCTS-%d", mcts.Simulations())
	b.temperature = temperature
	b.rng = rand.New(rand.NewSource(seed))
	return b
}

// NewTimedBaseline is a baseline engine searching for a fixed duration per move.
func NewTimedBaseline(duration time.Duration, options ...searcher.Option) *Baseline {
	b := NewBaseline(searcher.NewMCTS(append(options, searcher.WithDuration(duration))...))
	b.name = fmt.Sprintf("Baseline-MCTS-%s", duration)
	return b
}

// WithName overrides the generated name.
func (b *Baseline) WithName(name string) *Baseline {
	b.name = name
	return b
}

func (b *Baseline) Name() string {
	return b.name
}

func (b *Baseline) GenMove(ctx context.Context, board *game.Board) game.Move {
	result := b.mcts.Search(ctx, board)
	b.last = result.Metric
	if b.temperature > 0 && len(result.Stats) > 0 {
		return sample(adjustTemperature(result.Stats, b.temperature), b.rng.Float64())
	}
	return result.Move
}

func (b *Baseline) LastMetric() metrics.SearchMetric {
	return b.last
}

type weighted struct {
	move game.Move
	prob float64
}

func adjustTemperature(stats []searcher.Stat, temperature float64) []weighted {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make([]weighted, len(stats))
	for i, s := range stats {
		prob := math.Pow(float64(s.Visits), exponent)
		sum += prob
		adjusted[i] = weighted{move: s.Move, prob: prob}
	}
	// Normalize
	for i := range adjusted {
		adjusted[i].prob /= sum
	}
	return adjusted
}

func sample(policy []weighted, sampled float64) game.Move {
	cumulative := 0.0
	for _, w := range policy {
		cumulative += w.prob
		if sampled < cumulative {
			return w.move
		}
	}
	return policy[len(policy)-1].move // Fallback in case of rounding errors
}
