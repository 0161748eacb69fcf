// Package match plays complete games between two engines.
package match

import (
	"baduk/engine"
	"baduk/experiments/metrics"
	"baduk/game"
	"baduk/meta"
	"baduk/sgf"
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// Event describes a move as it is played.
type Event struct {
	GameID  string
	Black   string
	White   string
	Komi    float64
	Step    int
	Color   game.Color
	Move    game.Move
	Board   *game.Board // Position after the move; observers own this copy
	Elapsed time.Duration
}

// Observer is notified of every move of a game and of its end.
type Observer interface {
	OnMove(Event)
	OnEnd(Record)
}

// Record is a finished (or interrupted) game.
//
// MCTS engines only pass when no placement is legal, filling their own eyes
// otherwise, so games between them usually end at the move limit rather than
// after two passes.
type Record struct {
	ID          string
	Black       string
	White       string
	Size        int
	Komi        float64
	Moves       []game.Record
	Result      game.Result
	StartTime   time.Time
	EndTime     time.Time
	Metrics     []metrics.MoveMetric
	Substituted int // Engine answers replaced by the first legal move
}

// SGF exports the record with its players and result.
func (r Record) SGF() string {
	return sgf.Encode(sgf.Game{
		Size:   r.Size,
		Komi:   r.Komi,
		Black:  r.Black,
		White:  r.White,
		Result: r.Result.String(),
		Moves:  r.Moves,
	})
}

func (r Record) GameMetric() metrics.GameMetric {
	return metrics.GameMetric{
		ID:         r.ID,
		Black:      r.Black,
		White:      r.White,
		Winner:     r.Result.Outcome.String(),
		BlackScore: r.Result.Black,
		WhiteScore: r.Result.White,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Duration:   r.EndTime.Sub(r.StartTime),
		TotalMoves: len(r.Moves),
	}
}

type config struct {
	size      int
	komi      float64
	maxMoves  int
	observers []Observer
}

type Option func(*config)

func WithSize(size int) Option {
	return func(c *config) {
		c.size = size
	}
}

func WithKomi(komi float64) Option {
	return func(c *config) {
		c.komi = komi
	}
}

// WithMaxMoves ends the game after n moves even without two passes.
func WithMaxMoves(n int) Option {
	return func(c *config) {
		c.maxMoves = n
	}
}

func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observers = append(c.observers, o)
	}
}

// Run plays black against white until two consecutive passes or the move
// limit. Engines only ever see copies of the board. An engine answer that is
// not legal is replaced by the first legal move, else a pass.
//
// Run fails only when ctx is done before the game ends; the partial record is
// returned with the error.
func Run(ctx context.Context, black, white engine.Engine, options ...Option) (Record, error) {
	cfg := config{size: meta.BoardSize, komi: meta.Komi, maxMoves: meta.MaxMoves}
	for _, option := range options {
		option(&cfg)
	}
	if cfg.size < 1 || cfg.size > game.MaxSize {
		return Record{}, fmt.Errorf("failed to start game: board size %d out of range", cfg.size)
	}

	board := game.NewBoard(cfg.size)
	rec := Record{
		ID:        xid.New().String(),
		Black:     black.Name(),
		White:     white.Name(),
		Size:      cfg.size,
		Komi:      cfg.komi,
		StartTime: time.Now(),
	}
	logger := log.With().Str("game", rec.ID).Logger()
	logger.Info().Str("black", rec.Black).Str("white", rec.White).Int("size", cfg.size).Msg("game started")

	black.OnGameStart(board.Copy())
	white.OnGameStart(board.Copy())

	for step := 1; board.ConsecutivePasses() < 2 && step <= cfg.maxMoves; step++ {
		color := board.ToPlay()
		player := black
		if color == game.White {
			player = white
		}

		start := time.Now()
		move := player.GenMove(ctx, board.Copy())
		elapsed := time.Since(start)
		if err := ctx.Err(); err != nil {
			rec.finish(board)
			return rec, fmt.Errorf("failed to finish game %s: %w", rec.ID, err)
		}

		if !board.IsLegal(move) {
			fallback := engine.FirstLegal(board)
			logger.Warn().
				Str("engine", player.Name()).
				Str("move", game.FormatMove(cfg.size, move)).
				Str("fallback", game.FormatMove(cfg.size, fallback)).
				Msg("illegal answer replaced")
			move = fallback
			rec.Substituted++
		}
		board.Play(move)

		metric := metrics.SearchMetric{Duration: elapsed}
		if r, ok := player.(engine.Reporter); ok {
			metric = r.LastMetric()
		}
		rec.Metrics = append(rec.Metrics, metrics.MoveMetric{
			Step:         step,
			Player:       color.String(),
			Move:         game.FormatMove(cfg.size, move),
			SearchMetric: metric,
		})
		logger.Debug().Int("step", step).Str("color", color.String()).
			Str("move", game.FormatMove(cfg.size, move)).Dur("elapsed", elapsed).Msg("move played")

		for _, o := range cfg.observers {
			o.OnMove(Event{
				GameID:  rec.ID,
				Black:   rec.Black,
				White:   rec.White,
				Komi:    rec.Komi,
				Step:    step,
				Color:   color,
				Move:    move,
				Board:   board.Copy(),
				Elapsed: elapsed,
			})
		}
	}

	rec.finish(board)
	black.OnGameEnd(board.Copy(), rec.Result)
	white.OnGameEnd(board.Copy(), rec.Result)
	for _, o := range cfg.observers {
		o.OnEnd(rec)
	}

	logger.Info().
		Str("result", rec.Result.String()).
		Int("moves", len(rec.Moves)).
		Dur("duration", rec.EndTime.Sub(rec.StartTime)).
		Msg("game finished")
	return rec, nil
}

func (r *Record) finish(board *game.Board) {
	r.Moves = board.Moves()
	r.Result = board.Result(r.Komi)
	r.EndTime = time.Now()
}
