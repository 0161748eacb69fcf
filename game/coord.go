package game

import (
	"strconv"
	"strings"
)

// Column letters skip I.
const columnLabels = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// ToCoord formats (row, col) as a coordinate such as "D4", rows counted from the bottom.
func ToCoord(size, row, col int) string {
	return string(columnLabels[col]) + strconv.Itoa(size-row)
}

// FromCoord parses a coordinate such as "D4" or "pass". Malformed or
// out-of-range text yields NoMove. An empty string is a pass.
func FromCoord(size int, s string) Move {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "PASS" || s == "" {
		return Pass
	}
	if len(s) < 2 {
		return NoMove
	}
	col := strings.IndexByte(columnLabels[:size], s[0])
	if col < 0 {
		return NoMove
	}
	row, err := strconv.Atoi(strings.TrimSpace(s[1:]))
	if err != nil || row < 1 || row > size {
		return NoMove
	}
	return Place(size-row, col)
}

// FormatMove renders a move in coordinate notation, "pass" for a pass.
func FormatMove(size int, m Move) string {
	switch {
	case m.IsPass():
		return "pass"
	case !m.IsValid():
		return "invalid"
	default:
		return ToCoord(size, m.Row, m.Col)
	}
}

func (b *Board) ToCoord(row, col int) string {
	return ToCoord(b.size, row, col)
}

func (b *Board) FromCoord(s string) Move {
	return FromCoord(b.size, s)
}
