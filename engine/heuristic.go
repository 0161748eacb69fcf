package engine

import (
	"baduk/game"
	"context"
)

const HeuristicName = "Heuristic"

// Heuristic plays the 4-4 points, then on 19x19 the side star points and
// tengen, then the first legal placement.
type Heuristic struct {
	NopHooks
	name string
}

func NewHeuristic() *Heuristic {
	return &Heuristic{name: HeuristicName}
}

// fallback is the heuristic policy standing in for an engine that is unavailable.
func fallback(name string) *Heuristic {
	return &Heuristic{name: name + "-heuristic-fallback"}
}

func (h *Heuristic) Name() string {
	return h.name
}

func (h *Heuristic) GenMove(_ context.Context, board *game.Board) game.Move {
	return HeuristicMove(board)
}

func HeuristicMove(board *game.Board) game.Move {
	n := board.Size()
	priority := []game.Move{
		game.Place(3, 3),
		game.Place(3, n-4),
		game.Place(n-4, 3),
		game.Place(n-4, n-4),
	}
	if n == 19 {
		star := 9
		priority = append(priority,
			game.Place(3, star),
			game.Place(star, 3),
			game.Place(star, n-4),
			game.Place(n-4, star),
			game.Place(star, star),
		)
	}

	for _, m := range priority {
		if board.IsLegal(m) {
			return m
		}
	}
	return FirstLegal(board)
}
