package game

import "fmt"

// Group flood-fills the 4-connected group containing p and returns its stones
// and liberties, each point listed once. p must hold a stone.
func (b *Board) Group(p Point) (stones, liberties []Point) {
	if !b.inBounds(p) || b.at(p) == Empty {
		panic(fmt.Sprintf("no stone at %v", p))
	}
	color := b.at(p)
	seen := make([]bool, len(b.cells))
	seen[b.index(p)] = true
	stones = []Point{p}
	var buf [4]Point
	for stack := []Point{p}; len(stack) > 0; {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range b.neighbors(cur, buf[:]) {
			i := b.index(n)
			if seen[i] {
				continue
			}
			switch b.cells[i] {
			case Empty:
				seen[i] = true
				liberties = append(liberties, n)
			case color:
				seen[i] = true
				stones = append(stones, n)
				stack = append(stack, n)
			}
		}
	}
	return stones, liberties
}

// probe evaluates color playing at the empty point p without touching the
// board. It returns the opponent stones the move would capture, whether the
// placed group would be left without liberties before captures are removed,
// and the hash of the resulting position with the turn passed.
func (b *Board) probe(p Point, color Color) (captures []Point, suicide bool, hash uint64) {
	opp := color.Opponent()
	hasLiberty := false
	var buf [4]Point
	for _, n := range b.neighbors(p, buf[:]) {
		switch b.at(n) {
		case Empty:
			hasLiberty = true
		case color:
			if hasLiberty {
				continue
			}
			_, liberties := b.Group(n)
			for _, l := range liberties {
				if l != p {
					hasLiberty = true
					break
				}
			}
		case opp:
			if contains(captures, n) {
				continue
			}
			stones, liberties := b.Group(n)
			if len(liberties) == 1 && liberties[0] == p {
				captures = append(captures, stones...)
			}
		}
	}

	hash = b.hash ^ b.z.stone(p, color) ^ b.z.side
	for _, s := range captures {
		hash ^= b.z.stone(s, opp)
	}
	return captures, !hasLiberty, hash
}

func contains(points []Point, p Point) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}
	return false
}
