package engine

import (
	"baduk/game"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type closingEngine struct {
	*Heuristic
	closed bool
	err    error
}

func (c *closingEngine) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	require.NoError(t, Close(NewHeuristic()), "Engines without resources close trivially")

	e := &closingEngine{Heuristic: NewHeuristic(), err: errors.New("boom")}
	require.EqualError(t, Close(e), "boom")
	require.True(t, e.closed)
}

func TestNopHooks(t *testing.T) {
	var e Engine = NewHeuristic()
	board := game.NewBoard(9)
	e.OnGameStart(board)
	e.OnGameEnd(board, board.Result(7.5))
	require.Empty(t, board.Moves(), "Default hooks must not touch the board")
}

func TestFirstLegal(t *testing.T) {
	board := game.NewBoard(3)
	require.Equal(t, game.Place(0, 0), FirstLegal(board))
	require.True(t, board.Play(game.Place(0, 0)))
	require.Equal(t, game.Place(0, 1), FirstLegal(board))
	require.Equal(t, game.Pass, FirstLegal(game.NewBoard(1)))
}
