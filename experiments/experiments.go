package experiments

import (
	"baduk/engine"
	"baduk/experiments/metrics"
	"baduk/match"
	"baduk/meta"
	"baduk/searcher"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	NumGames   = 30 // Per match up
	TimeBudget = 100 * time.Millisecond
)

// Experiment is a set of match ups played a number of times each. The two
// configs of a match up swap colours every game.
type Experiment struct {
	Name     string
	Configs  []metrics.AgentConfig
	MatchUps [][2]metrics.AgentConfig
	Games    int // Per match up
	Size     int
	Komi     float64
	MaxMoves int
	Parallel int // Games played at once
}

var parallelConfigs = []metrics.AgentConfig{
	{ID: 1, Goroutines: 1, Duration: TimeBudget},
	{ID: 2, Goroutines: 2, Duration: TimeBudget},
	{ID: 3, Goroutines: 4, Duration: TimeBudget},
	{ID: 4, Goroutines: 8, Duration: TimeBudget},
	{ID: 5, Goroutines: 16, Duration: TimeBudget},
}

// ParallelizationToStrength pairs each parallel agent against the sequential baseline.
func ParallelizationToStrength() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Goroutines: 1, Duration: TimeBudget}
	matchUps := [][2]metrics.AgentConfig{}
	for _, config := range parallelConfigs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{baseline, config})
	}
	return defaults(Experiment{
		Name:     "parallelization_to_strength",
		Configs:  append([]metrics.AgentConfig{baseline}, parallelConfigs...),
		MatchUps: matchUps,
	})
}

// ParallelizationToThroughput uses the same config for both players of each
// match up, for the same playing strength and similar game length.
func ParallelizationToThroughput() Experiment {
	matchUps := [][2]metrics.AgentConfig{}
	for _, config := range parallelConfigs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{config, config})
	}
	return defaults(Experiment{
		Name:     "parallelization_to_throughput",
		Configs:  parallelConfigs,
		MatchUps: matchUps,
		Games:    2,
	})
}

// RolloutLimits pairs full-length rollouts against truncated ones.
func RolloutLimits() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Goroutines: 1, Duration: TimeBudget, RolloutLimit: meta.RolloutLimit}
	limitConfigs := []metrics.AgentConfig{
		{ID: 1, Goroutines: 1, Duration: TimeBudget, RolloutLimit: meta.RolloutLimit}, // Baseline equivalent
		{ID: 2, Goroutines: 1, Duration: TimeBudget, RolloutLimit: 50},
		{ID: 3, Goroutines: 1, Duration: TimeBudget, RolloutLimit: 150},
		{ID: 4, Goroutines: 1, Duration: TimeBudget, RolloutLimit: 450},
	}
	matchUps := [][2]metrics.AgentConfig{}
	for _, config := range limitConfigs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{baseline, config})
	}
	return defaults(Experiment{
		Name:     "rollout_limit",
		Configs:  append([]metrics.AgentConfig{baseline}, limitConfigs...),
		MatchUps: matchUps,
	})
}

// Named returns a predefined experiment.
func Named(name string) (Experiment, error) {
	switch name {
	case "strength", "parallelization_to_strength":
		return ParallelizationToStrength(), nil
	case "throughput", "parallelization_to_throughput":
		return ParallelizationToThroughput(), nil
	case "rollout", "rollout_limit":
		return RolloutLimits(), nil
	}
	return Experiment{}, fmt.Errorf("unknown experiment %q", name)
}

func defaults(e Experiment) Experiment {
	if e.Games <= 0 {
		e.Games = NumGames
	}
	if e.Size <= 0 {
		e.Size = meta.BoardSize
	}
	if e.Komi == 0 {
		e.Komi = meta.Komi
	}
	if e.MaxMoves <= 0 {
		e.MaxMoves = meta.MaxMoves
	}
	if e.Parallel <= 0 {
		e.Parallel = runtime.NumCPU()
	}
	return e
}

type pairing struct {
	matchUp int
	index   int
	black   metrics.AgentConfig
	white   metrics.AgentConfig
}

// Run plays every game of e and stores the results under root/<name>/<timestamp>/.
// It returns the directory written to.
func Run(ctx context.Context, e Experiment, root string) (string, error) {
	e = defaults(e)

	writer, err := metrics.NewWriter(root, e.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(e.Configs); err != nil {
		return "", err
	}
	log.Info().Msg("stored agent configs")

	var games []pairing
	for mi, matchUp := range e.MatchUps {
		for i := 0; i < e.Games; i++ {
			g := pairing{matchUp: mi, index: i, black: matchUp[0], white: matchUp[1]}
			if i%2 == 1 {
				g.black, g.white = g.white, g.black
			}
			games = append(games, g)
		}
	}

	log.Info().Msgf("starting %s experiment with %d games...", e.Name, len(games))

	gameRecords := make([]metrics.GameRecord, len(games))
	moveRecords := make([][]metrics.MoveRecord, len(games))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.Parallel)
	for gi, g := range games {
		group.Go(func() error {
			rec, err := match.Run(ctx, createEngine(g.black), createEngine(g.white),
				match.WithSize(e.Size),
				match.WithKomi(e.Komi),
				match.WithMaxMoves(e.MaxMoves),
			)
			if err != nil {
				return fmt.Errorf("failed to play matchup %d game %d: %w", g.matchUp+1, g.index+1, err)
			}

			matchUp := e.MatchUps[g.matchUp]
			moves := make([]metrics.MoveRecord, len(rec.Metrics))
			for i, mm := range rec.Metrics {
				moves[i] = metrics.NewMoveRecord(rec.ID, mm)
			}
			gameRecords[gi] = metrics.NewGameRecord(rec.GameMetric(), matchUp[0].ID, matchUp[1].ID, g.black.ID, rec.SGF())
			moveRecords[gi] = moves

			log.Info().Msgf("completed matchup %d of %d game %d of %d with result %s",
				g.matchUp+1, len(e.MatchUps), g.index+1, e.Games, rec.Result)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return writer.Dir(), err
	}

	log.Info().Msgf("completed %s experiment", e.Name)

	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return writer.Dir(), err
	}
	log.Info().Msg("stored game records")

	var flat []metrics.MoveRecord
	for _, moves := range moveRecords {
		flat = append(flat, moves...)
	}
	if err := writer.WriteMoveRecords(flat); err != nil {
		return writer.Dir(), err
	}
	log.Info().Msg("stored move records")

	for _, t := range Throughput(flat) {
		log.Info().
			Int("goroutines", t.Goroutines).
			Int("searches", t.Searches).
			Float64("simulations_per_second", t.SimulationsPerSecond).
			Msg("throughput")
	}
	return writer.Dir(), nil
}

func createEngine(config metrics.AgentConfig) engine.Engine {
	return engine.NewBaseline(createMCTS(config)).WithName(fmt.Sprintf("agent-%d", config.ID))
}

func createMCTS(config metrics.AgentConfig) *searcher.MCTS {
	options := []searcher.Option{}

	if config.Simulations > 0 {
		options = append(options, searcher.WithSimulations(config.Simulations))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.RolloutLimit > 0 {
		options = append(options, searcher.WithRolloutLimit(config.RolloutLimit))
	}
	if config.Goroutines > 0 {
		options = append(options, searcher.WithGoroutines(config.Goroutines))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(options...)
}
