package engine

import (
	"baduk/game"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// GenMoveRequest describes a game to a remote engine as its size, komi and moves.
type GenMoveRequest struct {
	Size  int       `json:"size"`
	Komi  float64   `json:"komi"`
	Moves []GTPMove `json:"moves"`
}

type GTPMove struct {
	Color  string `json:"color"`  // "B" or "W"
	Vertex string `json:"vertex"` // Coordinate or "pass"
}

type GenMoveResponse struct {
	Move   string `json:"move"`
	Engine string `json:"engine"`
}

// NewGenMoveRequest captures board as a request.
func NewGenMoveRequest(board *game.Board, komi float64) GenMoveRequest {
	req := GenMoveRequest{Size: board.Size(), Komi: komi, Moves: []GTPMove{}}
	for _, r := range board.Moves() {
		req.Moves = append(req.Moves, GTPMove{Color: gtpColor(r.Color), Vertex: game.FormatMove(board.Size(), r.Move)})
	}
	return req
}

// Replay rebuilds the board described by the request.
func (req GenMoveRequest) Replay() (*game.Board, error) {
	if req.Size < 1 || req.Size > game.MaxSize {
		return nil, fmt.Errorf("invalid board size %d", req.Size)
	}
	board := game.NewBoard(req.Size)
	for i, m := range req.Moves {
		if m.Color != gtpColor(board.ToPlay()) {
			return nil, fmt.Errorf("move %d: expected %s to play", i+1, gtpColor(board.ToPlay()))
		}
		move := board.FromCoord(m.Vertex)
		if !move.IsValid() || !board.Play(move) {
			return nil, fmt.Errorf("move %d: illegal move %q", i+1, m.Vertex)
		}
	}
	return board, nil
}

// Remote asks a move server for moves over HTTP.
type Remote struct {
	NopHooks
	url      string
	komi     float64
	client   *http.Client
	degraded atomic.Bool
}

func NewRemote(url string, komi float64) *Remote {
	return &Remote{
		url:    url,
		komi:   komi,
		client: &http.Client{Timeout: time.Minute},
	}
}

func (r *Remote) Name() string {
	if r.degraded.Load() {
		return "Remote-heuristic-fallback"
	}
	return "Remote(" + r.url + ")"
}

// GenMove falls back to the heuristic move while the server cannot answer.
func (r *Remote) GenMove(ctx context.Context, board *game.Board) game.Move {
	move, err := r.request(ctx, board)
	if err != nil {
		log.Warn().Err(err).Msgf("remote engine at %s failed, playing heuristic move", r.url)
		r.degraded.Store(true)
		return HeuristicMove(board)
	}
	r.degraded.Store(false)
	return move
}

func (r *Remote) request(ctx context.Context, board *game.Board) (game.Move, error) {
	payload, err := json.Marshal(NewGenMoveRequest(board, r.komi))
	if err != nil {
		return game.NoMove, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/api/genmove", bytes.NewReader(payload))
	if err != nil {
		return game.NoMove, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return game.NoMove, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return game.NoMove, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var answer GenMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return game.NoMove, fmt.Errorf("failed to decode response: %w", err)
	}

	move := board.FromCoord(answer.Move)
	if !move.IsValid() || !board.IsLegal(move) {
		return game.NoMove, fmt.Errorf("server answered illegal move %q", answer.Move)
	}
	return move, nil
}
