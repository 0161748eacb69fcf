package sgf

import (
	"baduk/game"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("header and moves", func(t *testing.T) {
		got := Encode(Game{
			Size: 19,
			Komi: 7.5,
			Moves: []game.Record{
				{Color: game.Black, Move: game.Place(3, 15)},
				{Color: game.White, Move: game.Pass},
				{Color: game.Black, Move: game.Place(18, 0)},
			},
		})
		require.Equal(t, "(;GM[1]FF[4]SZ[19]CA[UTF-8]KM[7.5]\n;B[pd];W[];B[as])\n", got)
	})

	t.Run("players and result", func(t *testing.T) {
		got := Encode(Game{Size: 9, Komi: 0.5, Black: "Baseline-MCTS-800", White: "Kata]Go", Result: "W+0.5"})
		require.Equal(t, "(;GM[1]FF[4]SZ[9]CA[UTF-8]KM[0.5]PB[Baseline-MCTS-800]PW[Kata\\]Go]RE[W+0.5]\n)\n", got)
	})
}

func TestDecode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := Game{
			Size:   13,
			Komi:   6.5,
			Black:  "a",
			White:  "b]c",
			Result: "B+12",
			Moves: []game.Record{
				{Color: game.Black, Move: game.Place(3, 3)},
				{Color: game.White, Move: game.Place(9, 9)},
				{Color: game.Black, Move: game.Pass},
			},
		}
		out, err := Decode(Encode(in))
		require.NoError(t, err)
		require.Equal(t, in, out)
	})

	t.Run("foreign record", func(t *testing.T) {
		text := `(;FF[4]GM[1]SZ[9]AP[other:1.0]C[comment with \] bracket]
			;B[cc]C[first];W[tt]
			(;B[ee];W[gg])
			(;B[aa]))`
		g, err := Decode(text)
		require.NoError(t, err)
		require.Equal(t, 9, g.Size)
		require.Equal(t, []game.Record{
			{Color: game.Black, Move: game.Place(2, 2)},
			{Color: game.White, Move: game.Pass},
			{Color: game.Black, Move: game.Place(4, 4)},
			{Color: game.White, Move: game.Place(6, 6)},
		}, g.Moves)
	})

	tests := map[string]string{
		"no tree":        ";B[aa]",
		"bad size":       "(;SZ[x])",
		"size too large": "(;SZ[99])",
		"off board":      "(;SZ[9];B[jj])",
		"long point":     "(;B[abc])",
		"unterminated":   "(;B[aa",
		"missing value":  "(;B)",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(text)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReplay(t *testing.T) {
	g := Game{Size: 9, Moves: []game.Record{
		{Color: game.Black, Move: game.Place(4, 4)},
		{Color: game.White, Move: game.Place(2, 2)},
	}}
	board, err := g.Replay()
	require.NoError(t, err)
	require.Equal(t, game.Black, board.At(4, 4))
	require.Equal(t, game.White, board.At(2, 2))

	g.Moves = append(g.Moves, game.Record{Color: game.White, Move: game.Place(0, 0)})
	_, err = g.Replay()
	require.Error(t, err)

	g.Moves[2] = game.Record{Color: game.Black, Move: game.Place(4, 4)}
	_, err = g.Replay()
	require.Error(t, err)
}
