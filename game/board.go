package game

import "fmt"

// Board is a Go position with the bookkeeping needed for simple ko.
// A Board is not safe for concurrent use; Copy it to hand it to another goroutine.
type Board struct {
	size     int
	cells    []Color
	toPlay   Color
	captured [3]int // indexed by Color
	ko       Point
	hasKo    bool
	hash     uint64 // grid plus side to move
	history  []uint64
	moves    []Record
	z        *zobrist
}

// NewBoard returns an empty board with Black to move.
func NewBoard(size int) *Board {
	if size < 1 || size > MaxSize {
		panic(fmt.Sprintf("board size %d out of range [1, %d]", size, MaxSize))
	}
	return &Board{
		size:   size,
		cells:  make([]Color, size*size),
		toPlay: Black,
		z:      zobristFor(size),
	}
}

// Copy returns a deep copy that shares no mutable state with b.
func (b *Board) Copy() *Board {
	nb := *b
	nb.cells = append([]Color(nil), b.cells...)
	nb.history = append([]uint64(nil), b.history...)
	nb.moves = append([]Record(nil), b.moves...)
	return &nb
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) ToPlay() Color {
	return b.toPlay
}

// At returns the color at (row, col), or Empty when out of bounds.
func (b *Board) At(row, col int) Color {
	p := Point{Row: row, Col: col}
	if !b.inBounds(p) {
		return Empty
	}
	return b.at(p)
}

// Captured returns how many opponent stones c has captured.
func (b *Board) Captured(c Color) int {
	return b.captured[c]
}

// Ko returns the point forbidden for the next move, if any.
func (b *Board) Ko() (Point, bool) {
	return b.ko, b.hasKo
}

func (b *Board) Hash() StateHash {
	return StateHash(b.hash)
}

// History returns the hashes of every position reached by a move, oldest first.
func (b *Board) History() []StateHash {
	history := make([]StateHash, len(b.history))
	for i, h := range b.history {
		history[i] = StateHash(h)
	}
	return history
}

// Moves returns the moves played on this board, oldest first.
func (b *Board) Moves() []Record {
	return append([]Record(nil), b.moves...)
}

// ConsecutivePasses counts the passes at the end of the move record.
func (b *Board) ConsecutivePasses() int {
	n := 0
	for i := len(b.moves) - 1; i >= 0 && b.moves[i].Move.IsPass(); i-- {
		n++
	}
	return n
}

// IsLegal reports whether m may be played by the side to move. Pass is always
// legal. A placement is illegal when off the board, on an occupied point, on
// the ko point, suicidal without capturing, or when it recreates the position
// recorded by the previous move.
func (b *Board) IsLegal(m Move) bool {
	if m.IsPass() {
		return true
	}
	if !m.IsValid() {
		return false
	}
	p := m.Point
	if !b.inBounds(p) || b.at(p) != Empty {
		return false
	}
	if b.hasKo && b.ko == p {
		return false
	}

	captures, suicide, hash := b.probe(p, b.toPlay)
	if suicide && len(captures) == 0 {
		return false
	}
	if n := len(b.history); n > 0 && b.history[n-1] == hash {
		return false
	}
	return true
}

// Play applies m for the side to move. It returns false and leaves the board
// untouched when m is illegal.
func (b *Board) Play(m Move) bool {
	if !b.IsLegal(m) {
		return false
	}

	color := b.toPlay
	prev := b.hash
	b.hasKo = false

	if m.IsPass() {
		b.endTurn(color, Pass)
		return true
	}

	p := m.Point
	captures, _, hash := b.probe(p, color)
	b.cells[b.index(p)] = color
	for _, s := range captures {
		b.cells[b.index(s)] = Empty
	}
	b.captured[color] += len(captures)
	b.hash = hash ^ b.z.side // grid only, side flips in endTurn

	if len(captures) == 1 {
		_, liberties := b.Group(p)
		if len(liberties) == 1 && b.hash != prev {
			b.ko = liberties[0]
			b.hasKo = true
		}
	}

	b.endTurn(color, m)
	return true
}

func (b *Board) endTurn(color Color, m Move) {
	b.toPlay = color.Opponent()
	b.hash ^= b.z.side
	b.history = append(b.history, b.hash)
	b.moves = append(b.moves, Record{Color: color, Move: m})
}

// LegalMoves lists every legal placement in row-major order followed by Pass.
func (b *Board) LegalMoves() []Move {
	return append(b.LegalPlacements(), Pass)
}

// LegalPlacements lists every legal placement in row-major order.
func (b *Board) LegalPlacements() []Move {
	moves := make([]Move, 0, len(b.cells))
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			m := Place(r, c)
			if b.IsLegal(m) {
				moves = append(moves, m)
			}
		}
	}
	return moves
}

func (b *Board) inBounds(p Point) bool {
	return p.Row >= 0 && p.Row < b.size && p.Col >= 0 && p.Col < b.size
}

func (b *Board) index(p Point) int {
	return p.Row*b.size + p.Col
}

func (b *Board) at(p Point) Color {
	return b.cells[b.index(p)]
}

var directions = [4]Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func (b *Board) neighbors(p Point, buf []Point) []Point {
	buf = buf[:0]
	for _, d := range directions {
		n := Point{Row: p.Row + d.Row, Col: p.Col + d.Col}
		if b.inBounds(n) {
			buf = append(buf, n)
		}
	}
	return buf
}
