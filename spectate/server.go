// Package spectate serves running and finished games over HTTP and websockets,
// and answers move requests for remote engines.
package spectate

import (
	"baduk/engine"
	"baduk/game"
	"baduk/match"
	"baduk/sgf"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxGames = 100
	shutdownTimeout = 5 * time.Second
)

// GameView is the public state of a game.
type GameView struct {
	ID       string   `json:"id"`
	Black    string   `json:"black"`
	White    string   `json:"white"`
	Size     int      `json:"size"`
	Komi     float64  `json:"komi"`
	Moves    []string `json:"moves"`
	Board    []string `json:"board"` // One row per line, top first: '.', 'X' or 'O'
	ToPlay   string   `json:"to_play"`
	Result   string   `json:"result,omitempty"`
	Finished bool     `json:"finished"`
	Updated  int64    `json:"updated_ms"`

	records []game.Record
}

// MoveView is broadcast for every move played.
type MoveView struct {
	GameID  string `json:"game_id"`
	Step    int    `json:"step"`
	Color   string `json:"color"`
	Move    string `json:"move"`
	Elapsed int64  `json:"elapsed_ms"`
	GameView
}

type Server struct {
	hub          *Hub
	router       chi.Router
	maxGames     int
	pingInterval time.Duration

	mu    sync.RWMutex
	games map[string]*GameView
	order []string // Game IDs, oldest first

	engineMu sync.Mutex
	engine   engine.Engine
}

type Option func(*Server)

// WithEngine answers POST /api/genmove with e. Requests are served one at a time.
func WithEngine(e engine.Engine) Option {
	return func(s *Server) {
		s.engine = e
	}
}

// WithMaxGames bounds the number of games kept; the oldest are forgotten first.
func WithMaxGames(n int) Option {
	return func(s *Server) {
		s.maxGames = n
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		s.pingInterval = d
	}
}

func NewServer(options ...Option) *Server {
	s := &Server{
		hub:          NewHub(),
		maxGames:     DefaultMaxGames,
		pingInterval: DefaultPingInterval,
		games:        make(map[string]*GameView),
	}
	for _, option := range options {
		option(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/games", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.snapshot())
	})
	r.Get("/api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		view, ok := s.game(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown game"})
			return
		}
		writeJSON(w, http.StatusOK, view)
	})
	r.Get("/api/games/{id}/sgf", s.serveSGF)
	r.Post("/api/genmove", s.serveGenMove)
	r.Get("/ws", s.serveWS)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// OnMove records the move and broadcasts it to spectators.
func (s *Server) OnMove(e match.Event) {
	s.mu.Lock()
	view, ok := s.games[e.GameID]
	if !ok {
		view = &GameView{ID: e.GameID, Black: e.Black, White: e.White, Size: e.Board.Size(), Komi: e.Komi}
		s.add(view)
	}
	view.records = append(view.records, game.Record{Color: e.Color, Move: e.Move})
	view.Moves = append(view.Moves, game.FormatMove(view.Size, e.Move))
	view.Board = rows(e.Board)
	view.ToPlay = e.Board.ToPlay().String()
	view.Updated = time.Now().UnixMilli()
	msg := MoveView{
		GameID:   e.GameID,
		Step:     e.Step,
		Color:    e.Color.String(),
		Move:     game.FormatMove(view.Size, e.Move),
		Elapsed:  e.Elapsed.Milliseconds(),
		GameView: view.copy(),
	}
	s.mu.Unlock()

	s.hub.Broadcast(wsMessage{Type: "move", Payload: mustMarshal(msg)})
}

// OnEnd marks the game finished and broadcasts its final state.
func (s *Server) OnEnd(rec match.Record) {
	s.mu.Lock()
	view, ok := s.games[rec.ID]
	if !ok {
		view = &GameView{ID: rec.ID, Black: rec.Black, White: rec.White, Size: rec.Size, Komi: rec.Komi}
		s.add(view)
	}
	view.records = rec.Moves
	view.Moves = view.Moves[:0]
	for _, r := range rec.Moves {
		view.Moves = append(view.Moves, game.FormatMove(rec.Size, r.Move))
	}
	if board, err := (sgf.Game{Size: rec.Size, Moves: rec.Moves}).Replay(); err == nil {
		view.Board = rows(board)
		view.ToPlay = board.ToPlay().String()
	}
	view.Result = rec.Result.String()
	view.Finished = true
	view.Updated = time.Now().UnixMilli()
	final := view.copy()
	s.mu.Unlock()

	s.hub.Broadcast(wsMessage{Type: "end", Payload: mustMarshal(final)})
}

// add must be called with mu held.
func (s *Server) add(view *GameView) {
	s.games[view.ID] = view
	s.order = append(s.order, view.ID)
	for len(s.order) > s.maxGames {
		delete(s.games, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) game(id string) (GameView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.games[id]
	if !ok {
		return GameView{}, false
	}
	return view.copy(), true
}

// snapshot lists every known game, oldest first.
func (s *Server) snapshot() []GameView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]GameView, 0, len(s.order))
	for _, id := range s.order {
		views = append(views, s.games[id].copy())
	}
	return views
}

func (v *GameView) copy() GameView {
	c := *v
	c.Moves = append([]string{}, v.Moves...)
	c.Board = append([]string(nil), v.Board...)
	c.records = append([]game.Record(nil), v.records...)
	return c
}

func (s *Server) serveSGF(w http.ResponseWriter, r *http.Request) {
	view, ok := s.game(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	text := sgf.Encode(sgf.Game{
		Size:   view.Size,
		Komi:   view.Komi,
		Black:  view.Black,
		White:  view.White,
		Result: view.Result,
		Moves:  view.records,
	})
	w.Header().Set("Content-Type", "application/x-go-sgf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+view.ID+`.sgf"`)
	_, _ = w.Write([]byte(text))
}

func (s *Server) serveGenMove(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no engine configured"})
		return
	}

	var req engine.GenMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	board, err := req.Replay()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.engineMu.Lock()
	move := s.engine.GenMove(r.Context(), board)
	name := s.engine.Name()
	s.engineMu.Unlock()

	writeJSON(w, http.StatusOK, engine.GenMoveResponse{Move: game.FormatMove(board.Size(), move), Engine: name})
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
// and disconnects spectators.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	log.Info().Msgf("spectator server listening on %s", addr)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down spectator server")
	case err, ok := <-serverErr:
		if ok {
			runErr = err
		}
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		_ = server.Close()
	}
	return runErr
}

func rows(board *game.Board) []string {
	out := make([]string, board.Size())
	line := make([]byte, board.Size())
	for r := range out {
		for c := range line {
			switch board.At(r, c) {
			case game.Black:
				line[c] = 'X'
			case game.White:
				line[c] = 'O'
			default:
				line[c] = '.'
			}
		}
		out[r] = string(line)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
