package searcher

import (
	"baduk/game"
	"math"
	"slices"
	"sync"

	"golang.org/x/exp/rand"
)

// node holds search statistics for one position. Children are owned by their
// parent; parent is a back-reference used only during backup.
type node struct {
	sync.Mutex
	parent   *node
	move     game.Move  // Move that led here, NoMove at the root
	player   game.Color // Color to move at this position
	visits   int
	value    float64 // Sum of values for player
	children []*node
	untried  []game.Move
}

func newNode(parent *node, move game.Move, board *game.Board) *node {
	return &node{
		parent:  parent,
		move:    move,
		player:  board.ToPlay(),
		untried: candidates(board),
	}
}

// candidates are the legal placements, or a lone pass when there are none.
func candidates(board *game.Board) []game.Move {
	moves := board.LegalPlacements()
	if len(moves) == 0 {
		return []game.Move{game.Pass}
	}
	return moves
}

// selectOrExpand advances one step from n, playing the chosen move on board.
// It expands a random untried move when one is left and otherwise descends
// to the child with the best UCT score. expanded reports whether the returned
// child was just created; child is nil when n has nowhere to go.
func (n *node) selectOrExpand(board *game.Board, rng *rand.Rand, c float64, loss bool) (child *node, expanded bool) {
	n.Lock()
	defer n.Unlock()

	if len(n.untried) > 0 { // Expandable node
		i := rng.Intn(len(n.untried))
		move := n.untried[i]
		n.untried = slices.Delete(n.untried, i, i+1)
		board.Play(move)
		child = newNode(n, move, board)
		n.children = append(n.children, child)
		if loss {
			child.applyLoss()
		}
		return child, true
	}

	if len(n.children) == 0 { // Terminal node
		return nil, false
	}

	// Fully expanded node
	child = n.pickChild(c)
	board.Play(child.move)
	if loss {
		child.applyLoss()
	}
	return child, false
}

// pickChild returns the first child with the highest UCT score.
func (n *node) pickChild(c float64) *node {
	policy := newUCT(c, n.visits)

	var best *node
	maxScore := math.Inf(-1)
	for _, child := range n.children {
		score := child.score(policy)
		if math.IsInf(score, 1) {
			return child
		}
		if best == nil || score > maxScore {
			maxScore = score
			best = child
		}
	}
	return best
}

func (n *node) score(policy uct) float64 {
	n.Lock()
	defer n.Unlock()

	return policy.evaluate(n.value, n.visits)
}

func (n *node) applyLoss() {
	n.Lock()
	defer n.Unlock()

	n.value -= virtualLoss
	n.visits++
}

func (n *node) reverseLoss() {
	n.value += virtualLoss
	n.visits--
}

// backup records a Black-perspective value and returns the parent.
func (n *node) backup(value float64, loss bool) *node {
	n.Lock()
	defer n.Unlock()

	if loss && n.parent != nil { // Root never takes a virtual loss
		n.reverseLoss()
	}

	n.visits++
	if n.player == game.Black {
		n.value += value
	} else {
		n.value -= value
	}
	return n.parent
}

func (n *node) stats() (visits int, value float64) {
	n.Lock()
	defer n.Unlock()

	return n.visits, n.value
}

// bestChild returns the most visited child, the first one on ties.
func (n *node) bestChild() *node {
	n.Lock()
	defer n.Unlock()

	var best *node
	maxVisits := -1
	for _, child := range n.children {
		if visits, _ := child.stats(); visits > maxVisits {
			maxVisits = visits
			best = child
		}
	}
	return best
}
