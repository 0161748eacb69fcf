package game

import "strconv"

// ScoreAreaTrompTaylor counts each color's stones plus the empty regions
// bordered only by that color. Komi is added to White.
func (b *Board) ScoreAreaTrompTaylor(komi float64) (black, white float64) {
	var area [3]int
	seen := make([]bool, len(b.cells))
	var buf [4]Point
	for i, c := range b.cells {
		if c != Empty {
			area[c]++
			continue
		}
		if seen[i] {
			continue
		}

		// Flood the empty region and collect the colors bordering it
		start := Point{Row: i / b.size, Col: i % b.size}
		seen[i] = true
		size := 0
		var borders [3]bool
		for stack := []Point{start}; len(stack) > 0; {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			for _, n := range b.neighbors(cur, buf[:]) {
				j := b.index(n)
				switch b.cells[j] {
				case Empty:
					if !seen[j] {
						seen[j] = true
						stack = append(stack, n)
					}
				default:
					borders[b.cells[j]] = true
				}
			}
		}
		switch {
		case borders[Black] && !borders[White]:
			area[Black] += size
		case borders[White] && !borders[Black]:
			area[White] += size
		}
	}
	return float64(area[Black]), float64(area[White]) + komi
}

// Outcome scores the board and judges the result.
func (b *Board) Outcome(komi float64) Outcome {
	return Judge(b.ScoreAreaTrompTaylor(komi))
}

// Result is a scored final position.
type Result struct {
	Black   float64
	White   float64
	Outcome Outcome
}

func (b *Board) Result(komi float64) Result {
	black, white := b.ScoreAreaTrompTaylor(komi)
	return Result{Black: black, White: white, Outcome: Judge(black, white)}
}

// String formats the result the way game records do: "B+3.5", "W+0.5" or "0".
func (r Result) String() string {
	switch r.Outcome {
	case BlackWins:
		return "B+" + strconv.FormatFloat(r.Black-r.White, 'f', -1, 64)
	case WhiteWins:
		return "W+" + strconv.FormatFloat(r.White-r.Black, 'f', -1, 64)
	default:
		return "0"
	}
}
