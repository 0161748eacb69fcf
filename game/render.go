package game

import (
	"fmt"
	"strings"
)

const (
	emptySymbol = '.'
	blackSymbol = 'X'
	whiteSymbol = 'O'
)

// String draws the board with column letters and row numbers.
func (b *Board) String() string {
	var sb strings.Builder
	header := "   " + strings.Join(strings.Split(columnLabels[:b.size], ""), " ") + "\n"
	sb.WriteString(header)
	for r := 0; r < b.size; r++ {
		fmt.Fprintf(&sb, "%2d", b.size-r)
		for c := 0; c < b.size; c++ {
			sb.WriteByte(' ')
			sb.WriteByte(symbol(b.at(Point{Row: r, Col: c})))
		}
		fmt.Fprintf(&sb, " %d\n", b.size-r)
	}
	sb.WriteString(header)
	return sb.String()
}

func symbol(c Color) byte {
	switch c {
	case Black:
		return blackSymbol
	case White:
		return whiteSymbol
	default:
		return emptySymbol
	}
}

// FromDiagram sets up a position from rows of '.', 'X' (black) and 'O'
// (white); whitespace is ignored. The position has no history.
func FromDiagram(diagram string, toPlay Color) (*Board, error) {
	var rows []string
	for _, line := range strings.Split(diagram, "\n") {
		row := strings.Join(strings.Fields(line), "")
		if row != "" {
			rows = append(rows, row)
		}
	}
	size := len(rows)
	if size == 0 || size > MaxSize {
		return nil, fmt.Errorf("invalid diagram size %d", size)
	}

	b := NewBoard(size)
	for r, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("row %d has %d points, want %d", r+1, len(row), size)
		}
		for c := 0; c < size; c++ {
			var color Color
			switch row[c] {
			case emptySymbol:
				continue
			case blackSymbol:
				color = Black
			case whiteSymbol:
				color = White
			default:
				return nil, fmt.Errorf("unexpected symbol %q at row %d", row[c], r+1)
			}
			p := Point{Row: r, Col: c}
			b.cells[b.index(p)] = color
			b.hash ^= b.z.stone(p, color)
		}
	}
	if toPlay == White {
		b.toPlay = White
		b.hash ^= b.z.side
	}
	return b, nil
}
