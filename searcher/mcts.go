package searcher

import (
	"baduk/experiments/metrics"
	"baduk/game"
	"baduk/meta"
	"context"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

const (
	RolloutLimit = meta.RolloutLimit // Moves per rollout before it is scored as is
	Komi         = meta.Komi
)

type Option func(mcts *MCTS)

// Stat is the search statistics of one root child.
type Stat struct {
	Move   game.Move
	Visits int
	Value  float64 // Sum of values for the player to move after Move
}

type Result struct {
	Move   game.Move
	Stats  []Stat // In expansion order
	Metric metrics.SearchMetric
}

// MCTS chooses moves by Monte Carlo tree search with random rollouts. A fresh
// tree is built for every search. An MCTS must not run two searches at once.
type MCTS struct {
	goroutines   int
	simulations  int
	duration     time.Duration
	rolloutLimit int
	exploration  float64
	komi         float64
	rng          *rand.Rand
	metrics      metrics.Collector
}

func WithSimulations(simulations int) Option {
	return func(m *MCTS) {
		if simulations > 0 {
			m.simulations = simulations
		}
	}
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithRolloutLimit(limit int) Option {
	return func(m *MCTS) {
		if limit > 0 {
			m.rolloutLimit = limit
		}
	}
}

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c >= 0 {
			m.exploration = c
		}
	}
}

func WithKomi(komi float64) Option {
	return func(m *MCTS) {
		m.komi = komi
	}
}

// WithGoroutines runs simulations on several workers sharing the tree, with
// virtual loss applied along each worker's path. One goroutine is the plain
// sequential search.
func WithGoroutines(goroutines int) Option {
	return func(m *MCTS) {
		if goroutines > 0 {
			m.goroutines = goroutines
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		goroutines:   1,
		rolloutLimit: RolloutLimit,
		exploration:  Exploration,
		komi:         Komi,
		metrics:      metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.simulations <= 0 && m.duration <= 0 {
		panic("Must specify search simulations or duration")
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return m
}

func (m *MCTS) Simulations() int {
	return m.simulations
}

// Choose searches board and returns the most visited move, or pass when no
// simulation expanded the root. board is not modified.
func (m *MCTS) Choose(ctx context.Context, board *game.Board) game.Move {
	return m.Search(ctx, board).Move
}

// Search runs simulations until the simulation count or duration is spent or
// ctx is done. Cancellation is only observed between simulations.
func (m *MCTS) Search(ctx context.Context, board *game.Board) Result {
	root := newNode(nil, game.NoMove, board)

	m.metrics.Start(m.goroutines, m.rolloutLimit)
	m.iterate(ctx, board, root)
	metric := m.metrics.Complete()

	result := Result{Move: game.Pass, Metric: metric}
	if best := root.bestChild(); best != nil {
		result.Move = best.move
	}
	for _, child := range root.children {
		visits, value := child.stats()
		result.Stats = append(result.Stats, Stat{Move: child.move, Visits: visits, Value: value})
	}
	return result
}

func (m *MCTS) iterate(ctx context.Context, board *game.Board, root *node) {
	var deadline time.Time
	if m.duration > 0 {
		deadline = time.Now().Add(m.duration)
	}

	var task chan any
	if m.simulations > 0 {
		task = make(chan any, m.simulations)
		for i := 0; i < m.simulations; i++ {
			task <- nil
		}
		close(task)
	}

	loss := m.goroutines > 1
	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		rng := rand.New(rand.NewSource(m.rng.Uint64()))
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				if ctx.Err() != nil || (!deadline.IsZero() && !time.Now().Before(deadline)) {
					return
				}
				if task != nil {
					if _, ok := <-task; !ok {
						return
					}
				}
				m.simulate(board.Copy(), root, rng, loss)
				m.metrics.AddSimulation()
			}
		}()
	}

	wg.Wait()
}

// simulate runs one select, expand, rollout and backup pass on a private board.
func (m *MCTS) simulate(board *game.Board, root *node, rng *rand.Rand, loss bool) {
	leaf := root
	for {
		child, expanded := leaf.selectOrExpand(board, rng, m.exploration, loss)
		if child == nil {
			break
		}
		leaf = child
		if expanded {
			break
		}
	}

	outcome := rollout(board, m.rolloutLimit, m.komi, rng, m.metrics)
	backup(leaf, outcome.Value(), loss)
}

// rollout plays uniformly random legal placements, passing only when there
// are none, until two consecutive passes or limit moves.
func rollout(board *game.Board, limit int, komi float64, rng *rand.Rand, collector metrics.Collector) game.Outcome {
	passes, steps := 0, 0
	for passes < 2 && steps < limit {
		move := game.Pass
		if moves := board.LegalPlacements(); len(moves) > 0 {
			move = moves[rng.Intn(len(moves))]
		}
		board.Play(move)
		if move.IsPass() {
			passes++
		} else {
			passes = 0
		}
		steps++
	}

	if passes >= 2 {
		collector.AddFullRollout()
	}
	return board.Outcome(komi)
}

func backup(leaf *node, value float64, loss bool) {
	node := leaf
	for node != nil {
		node = node.backup(value, loss)
	}
}
