package game

import (
	"sync"

	"golang.org/x/exp/rand"
)

type zobrist struct {
	size   int
	stones []uint64
	side   uint64
}

type zobristStore struct {
	mu     sync.Mutex
	tables map[int]*zobrist
}

var zobrists = &zobristStore{tables: make(map[int]*zobrist)}

// zobristFor returns the shared key table for a board size. Keys are seeded by
// size so hashes are stable across runs.
func zobristFor(size int) *zobrist {
	zobrists.mu.Lock()
	defer zobrists.mu.Unlock()
	if z, ok := zobrists.tables[size]; ok {
		return z
	}
	rng := rand.New(rand.NewSource(0x9e3779b97f4a7c15 ^ uint64(size)))
	z := &zobrist{size: size, stones: make([]uint64, size*size*2)}
	for i := range z.stones {
		z.stones[i] = rng.Uint64()
	}
	z.side = rng.Uint64()
	zobrists.tables[size] = z
	return z
}

func (z *zobrist) stone(p Point, c Color) uint64 {
	idx := (p.Row*z.size + p.Col) * 2
	if c == White {
		idx++
	}
	return z.stones[idx]
}
