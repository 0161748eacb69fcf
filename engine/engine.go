package engine

import (
	"baduk/experiments/metrics"
	"baduk/game"
	"context"
	"io"
)

// Engine is anything that can pick moves for a game.
type Engine interface {
	Name() string
	// GenMove returns a move for the side to move on board. It never returns
	// an error; engines that fail fall back to a builtin policy.
	GenMove(ctx context.Context, board *game.Board) game.Move
	OnGameStart(board *game.Board)
	OnGameEnd(board *game.Board, result game.Result)
}

// NopHooks provides the default no-op lifecycle hooks. Embed it.
type NopHooks struct{}

func (NopHooks) OnGameStart(*game.Board)            {}
func (NopHooks) OnGameEnd(*game.Board, game.Result) {}

// Reporter is implemented by engines that search and can describe their last search.
type Reporter interface {
	LastMetric() metrics.SearchMetric
}

// Close releases the resources held by e, if any.
func Close(e Engine) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FirstLegal returns the first legal placement in row-major order, else pass.
func FirstLegal(board *game.Board) game.Move {
	for r := 0; r < board.Size(); r++ {
		for c := 0; c < board.Size(); c++ {
			if m := game.Place(r, c); board.IsLegal(m) {
				return m
			}
		}
	}
	return game.Pass
}
