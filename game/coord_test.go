package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoordRoundTrip(t *testing.T) {
	for _, size := range []int{9, 13, 19} {
		b := NewBoard(size)
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				require.Equal(t, Place(r, c), b.FromCoord(b.ToCoord(r, c)))
			}
		}
	}
}

func TestToCoord(t *testing.T) {
	b := NewBoard(19)
	require.Equal(t, "A19", b.ToCoord(0, 0))
	require.Equal(t, "T1", b.ToCoord(18, 18))
	require.Equal(t, "J10", b.ToCoord(9, 8), "column letters skip I")
	require.Equal(t, "D4", b.ToCoord(15, 3))
}

func TestFromCoord(t *testing.T) {
	tests := map[string]Move{
		"D4":    Place(15, 3),
		" d4 ":  Place(15, 3),
		"t19":   Place(0, 18),
		"PASS":  Pass,
		"pass":  Pass,
		"":      Pass,
		"I5":    NoMove,
		"U1":    NoMove,
		"A0":    NoMove,
		"A20":   NoMove,
		"D":     NoMove,
		"4D":    NoMove,
		"DD":    NoMove,
		"D4.5":  NoMove,
		"resig": NoMove,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, FromCoord(19, in))
		})
	}

	require.Equal(t, NoMove, FromCoord(9, "K1"), "column beyond a 9x9 board")
}

func TestFormatMove(t *testing.T) {
	require.Equal(t, "pass", FormatMove(19, Pass))
	require.Equal(t, "invalid", FormatMove(19, NoMove))
	require.Equal(t, "Q16", FormatMove(19, Place(3, 15)))
}
