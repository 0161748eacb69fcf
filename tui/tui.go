// Package tui is a terminal board for playing against an engine.
package tui

import (
	"baduk/engine"
	"baduk/game"
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

type engineMoveMsg struct {
	move    game.Move
	elapsed time.Duration
}

type Model struct {
	board    *game.Board
	engine   engine.Engine
	human    game.Color
	komi     float64
	maxMoves int
	cursor   game.Point
	thinking bool
	over     bool
	result   game.Result
	message  string
}

// New starts a game on an empty board of the given size with the human playing human.
func New(e engine.Engine, human game.Color, size int, komi float64, maxMoves int) Model {
	board := game.NewBoard(size)
	e.OnGameStart(board.Copy())
	return Model{
		board:    board,
		engine:   e,
		human:    human,
		komi:     komi,
		maxMoves: maxMoves,
		cursor:   game.Point{Row: size / 2, Col: size / 2},
	}
}

func (m Model) Init() tea.Cmd {
	if m.board.ToPlay() != m.human {
		return m.think()
	}
	return nil
}

func (m *Model) think() tea.Cmd {
	m.thinking = true
	e, board := m.engine, m.board.Copy()
	return func() tea.Msg {
		start := time.Now()
		move := e.GenMove(context.Background(), board)
		return engineMoveMsg{move: move, elapsed: time.Since(start)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)
	case engineMoveMsg:
		m.thinking = false
		move := msg.move
		if !m.board.IsLegal(move) {
			log.Warn().Str("engine", m.engine.Name()).Str("move", move.String()).Msg("illegal answer replaced")
			move = engine.FirstLegal(m.board)
		}
		color := m.board.ToPlay()
		m.board.Play(move)
		m.message = fmt.Sprintf("%s played %s (%s)", color, game.FormatMove(m.board.Size(), move), msg.elapsed.Round(time.Millisecond))
		return m.next()
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.board.Size()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor.Row = max(m.cursor.Row-1, 0)
	case "down", "j":
		m.cursor.Row = min(m.cursor.Row+1, n-1)
	case "left", "h":
		m.cursor.Col = max(m.cursor.Col-1, 0)
	case "right", "l":
		m.cursor.Col = min(m.cursor.Col+1, n-1)
	case "enter", " ", "space":
		return m.play(game.Place(m.cursor.Row, m.cursor.Col))
	case "p":
		return m.play(game.Pass)
	}
	return m, nil
}

func (m Model) play(move game.Move) (tea.Model, tea.Cmd) {
	if m.over || m.thinking || m.board.ToPlay() != m.human {
		return m, nil
	}
	if !m.board.Play(move) {
		m.message = fmt.Sprintf("%s is not a legal move", game.FormatMove(m.board.Size(), move))
		return m, nil
	}
	m.message = fmt.Sprintf("you played %s", game.FormatMove(m.board.Size(), move))
	return m.next()
}

// next ends the game or hands the turn to the engine.
func (m Model) next() (tea.Model, tea.Cmd) {
	if m.board.ConsecutivePasses() >= 2 || len(m.board.Moves()) >= m.maxMoves {
		m.over = true
		m.result = m.board.Result(m.komi)
		m.engine.OnGameEnd(m.board.Copy(), m.result)
		return m, nil
	}
	if m.board.ToPlay() != m.human {
		cmd := m.think()
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	n := m.board.Size()

	sb.WriteString("   ")
	for c := 0; c < n; c++ {
		sb.WriteString(" " + string(game.ToCoord(n, 0, c)[0]) + " ")
	}
	sb.WriteString("\n")
	for r := 0; r < n; r++ {
		fmt.Fprintf(&sb, "%2d ", n-r)
		for c := 0; c < n; c++ {
			stone := "."
			switch m.board.At(r, c) {
			case game.Black:
				stone = "X"
			case game.White:
				stone = "O"
			}
			if m.cursor == (game.Point{Row: r, Col: c}) && !m.over {
				sb.WriteString("[" + stone + "]")
			} else {
				sb.WriteString(" " + stone + " ")
			}
		}
		fmt.Fprintf(&sb, " %d\n", n-r)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Black (X) captured %d   White (O) captured %d\n",
		m.board.Captured(game.Black), m.board.Captured(game.White))
	switch {
	case m.over:
		fmt.Fprintf(&sb, "Game over: %s (black %.1f, white %.1f)\n", m.result, m.result.Black, m.result.White)
	case m.thinking:
		fmt.Fprintf(&sb, "%s is thinking...\n", m.engine.Name())
	default:
		fmt.Fprintf(&sb, "You play %s. %s to move.\n", m.human, m.board.ToPlay())
	}
	if m.message != "" {
		sb.WriteString(m.message + "\n")
	}
	sb.WriteString("\narrows/hjkl move, enter/space play, p pass, q quit\n")
	return sb.String()
}

func (m Model) Board() *game.Board {
	return m.board
}

func (m Model) Over() bool {
	return m.over
}

func (m Model) Result() game.Result {
	return m.result
}

// Run plays an interactive game in the terminal.
func Run(e engine.Engine, human game.Color, size int, komi float64, maxMoves int) (game.Result, error) {
	final, err := tea.NewProgram(New(e, human, size, komi, maxMoves), tea.WithAltScreen()).Run()
	if err != nil {
		return game.Result{}, fmt.Errorf("failed to run terminal board: %w", err)
	}
	return final.(Model).Result(), nil
}
