package game

import "fmt"

// Point is a board intersection, row 0 being the top edge.
type Point struct {
	Row, Col int
}

type moveKind int8

const (
	place moveKind = iota
	pass
	invalid
)

// Move is a stone placement, a pass or the invalid sentinel.
// Moves are comparable and can be used as map keys.
type Move struct {
	Point
	kind moveKind
}

var (
	Pass   = Move{Point: Point{Row: -1, Col: -1}, kind: pass}
	NoMove = Move{Point: Point{Row: -1, Col: -1}, kind: invalid}
)

// Place returns the placement move at (row, col).
func Place(row, col int) Move {
	return Move{Point: Point{Row: row, Col: col}}
}

func (m Move) IsPass() bool {
	return m.kind == pass
}

// IsValid reports whether m is anything but the NoMove sentinel.
func (m Move) IsValid() bool {
	return m.kind != invalid
}

func (m Move) String() string {
	switch m.kind {
	case pass:
		return "pass"
	case invalid:
		return "invalid"
	default:
		return fmt.Sprintf("(%d,%d)", m.Row, m.Col)
	}
}

// Record is a move as played, with the color that played it.
type Record struct {
	Color Color
	Move  Move
}
