package searcher

import (
	"baduk/meta"
	"math"
)

// Hyperparameters for MCTS

const Exploration = meta.Exploration // Default exploration constant c

const WIN = 1.0   // Black-perspective value of a Black win
const LOSS = -WIN // Black-perspective value of a White win

// Virtual loss keeps concurrent workers off the same line until they back up.
const virtualLoss = WIN

type uct struct {
	c     float64
	logN1 float64
}

// newUCT prepares the selection score for children of a node with N visits.
func newUCT(c float64, N int) uct {
	if N < 0 {
		panic("N cannot be negative")
	}
	return uct{c: c, logN1: math.Log(float64(N) + 1)}
}

// evaluate returns W/n + c*sqrt(ln(N+1)/n), or +Inf for an unvisited child.
func (u uct) evaluate(w float64, n int) float64 {
	if n == 0 {
		return math.Inf(1)
	}
	return w/float64(n) + u.c*math.Sqrt(u.logN1/float64(n))
}
