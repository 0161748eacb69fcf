package game

// Color is the state of a board point and doubles as the side to move.
type Color int8

const (
	Empty Color = iota
	Black
	White
)

// MaxSize is bounded by the number of column letters available.
const MaxSize = len(columnLabels)

// DrawTolerance is the score difference under which a game is a draw.
const DrawTolerance = 1e-6

type StateHash uint64

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Outcome of a scored game.
type Outcome int8

const (
	Draw Outcome = iota
	BlackWins
	WhiteWins
)

// Judge classifies a pair of scores.
func Judge(black, white float64) Outcome {
	diff := black - white
	if diff < 0 {
		diff = -diff
	}
	if diff < DrawTolerance {
		return Draw
	}
	if black > white {
		return BlackWins
	}
	return WhiteWins
}

// Value is the outcome from Black's perspective: +1 win, -1 loss, 0 draw.
func (o Outcome) Value() float64 {
	switch o {
	case BlackWins:
		return 1
	case WhiteWins:
		return -1
	default:
		return 0
	}
}

func (o Outcome) Winner() Color {
	switch o {
	case BlackWins:
		return Black
	case WhiteWins:
		return White
	default:
		return Empty
	}
}

func (o Outcome) String() string {
	switch o {
	case BlackWins:
		return "black"
	case WhiteWins:
		return "white"
	default:
		return "draw"
	}
}
