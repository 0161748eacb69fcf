package searcher

import (
	"baduk/game"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestCandidates(t *testing.T) {
	t.Run("legal placements without pass", func(t *testing.T) {
		moves := candidates(game.NewBoard(2))
		require.Equal(t, []game.Move{game.Place(0, 0), game.Place(0, 1), game.Place(1, 0), game.Place(1, 1)}, moves)
	})

	t.Run("lone pass when nothing can be placed", func(t *testing.T) {
		require.Equal(t, []game.Move{game.Pass}, candidates(game.NewBoard(1)))
	})
}

func TestSelectOrExpand(t *testing.T) {
	t.Run("expands every candidate before selecting", func(t *testing.T) {
		board := game.NewBoard(2)
		root := newNode(nil, game.NoMove, board)
		rng := rand.New(rand.NewSource(1))

		seen := map[game.Move]bool{}
		for i := 0; i < 4; i++ {
			b := board.Copy()
			child, expanded := root.selectOrExpand(b, rng, Exploration, false)
			require.True(t, expanded, "Should expand while moves are untried")
			require.Equal(t, game.White, child.player)
			require.Equal(t, game.Black, b.At(child.move.Row, child.move.Col), "Should play the expanded move")
			require.Same(t, root, child.parent)
			seen[child.move] = true
			backup(child, 0, false)
		}
		require.Len(t, seen, 4)
		require.Empty(t, root.untried)
		require.Equal(t, 4, root.visits)

		child, expanded := root.selectOrExpand(board.Copy(), rng, Exploration, false)
		require.False(t, expanded, "Should select once fully expanded")
		require.Contains(t, root.children, child)
	})

	t.Run("selects the highest scoring child", func(t *testing.T) {
		root := &node{player: game.Black, visits: 10}
		weak := &node{parent: root, move: game.Place(0, 0), player: game.White, visits: 5, value: -5}
		strong := &node{parent: root, move: game.Place(1, 1), player: game.White, visits: 5, value: 5}
		root.children = []*node{weak, strong}

		board := game.NewBoard(2)
		child, expanded := root.selectOrExpand(board, nil, Exploration, false)
		require.False(t, expanded)
		require.Same(t, strong, child)
		require.Equal(t, game.Black, board.At(1, 1))
	})

	t.Run("unvisited child is chosen first", func(t *testing.T) {
		root := &node{player: game.Black, visits: 10}
		visited := &node{parent: root, move: game.Place(0, 0), player: game.White, visits: 1, value: 1}
		fresh := &node{parent: root, move: game.Place(1, 1), player: game.White}
		root.children = []*node{visited, fresh}

		child, _ := root.selectOrExpand(game.NewBoard(2), nil, Exploration, false)
		require.Same(t, fresh, child)
	})

	t.Run("ties go to the first child", func(t *testing.T) {
		root := &node{player: game.Black, visits: 4}
		first := &node{parent: root, move: game.Place(0, 0), player: game.White, visits: 2, value: 1}
		second := &node{parent: root, move: game.Place(1, 1), player: game.White, visits: 2, value: 1}
		root.children = []*node{first, second}

		child, _ := root.selectOrExpand(game.NewBoard(2), nil, Exploration, false)
		require.Same(t, first, child)
	})

	t.Run("terminal node goes nowhere", func(t *testing.T) {
		root := &node{player: game.Black}
		child, expanded := root.selectOrExpand(game.NewBoard(2), nil, Exploration, false)
		require.Nil(t, child)
		require.False(t, expanded)
	})
}

func TestBackup(t *testing.T) {
	t.Run("value is signed by the player to move", func(t *testing.T) {
		root := &node{player: game.Black}
		child := &node{parent: root, player: game.White}
		grandChild := &node{parent: child, player: game.Black}

		backup(grandChild, WIN, false)
		require.Equal(t, 1, grandChild.visits)
		require.Equal(t, WIN, grandChild.value)
		require.Equal(t, LOSS, child.value)
		require.Equal(t, WIN, root.value)
		require.Equal(t, 1, root.visits)

		backup(grandChild, 0, false)
		require.Equal(t, 2, root.visits)
		require.Equal(t, WIN, root.value, "Draws add nothing")
	})

	t.Run("virtual loss is reversed", func(t *testing.T) {
		root := &node{player: game.Black}
		child := &node{parent: root, player: game.White}

		child.applyLoss()
		require.Equal(t, 1, child.visits)
		require.Equal(t, -virtualLoss, child.value)

		backup(child, LOSS, true)
		require.Equal(t, 1, child.visits)
		require.Equal(t, WIN, child.value)
		require.Equal(t, 1, root.visits, "Root takes no virtual loss")
		require.Equal(t, LOSS, root.value)
	})
}

func TestBestChild(t *testing.T) {
	root := &node{player: game.Black}
	require.Nil(t, root.bestChild())

	root.children = []*node{
		{move: game.Place(0, 0), visits: 3},
		{move: game.Place(0, 1), visits: 5},
		{move: game.Place(1, 0), visits: 5},
	}
	require.Equal(t, game.Place(0, 1), root.bestChild().move, "Should break ties by first encountered")
}
