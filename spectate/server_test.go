package spectate

import (
	"baduk/engine"
	"baduk/game"
	"baduk/match"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func moveEvent(t *testing.T, id string, board *game.Board, m game.Move) match.Event {
	t.Helper()
	color := board.ToPlay()
	require.True(t, board.Play(m))
	return match.Event{
		GameID: id,
		Black:  "b",
		White:  "w",
		Komi:   7.5,
		Step:   len(board.Moves()),
		Color:  color,
		Move:   m,
		Board:  board.Copy(),
	}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestServerGames(t *testing.T) {
	s := NewServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var health map[string]bool
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", &health))
	require.True(t, health["ok"])

	var games []GameView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/games", &games))
	require.Empty(t, games)

	board := game.NewBoard(3)
	s.OnMove(moveEvent(t, "g1", board, game.Place(1, 1)))
	s.OnMove(moveEvent(t, "g1", board, game.Pass))

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/games", &games))
	require.Len(t, games, 1)
	require.Equal(t, GameView{
		ID:      "g1",
		Black:   "b",
		White:   "w",
		Size:    3,
		Komi:    7.5,
		Moves:   []string{"B2", "pass"},
		Board:   []string{"...", ".X.", "..."},
		ToPlay:  "black",
		Updated: games[0].Updated,
	}, games[0])

	var view GameView
	require.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/games/nope", nil))
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/games/g1", &view))
	require.Equal(t, "g1", view.ID)

	resp, err := http.Get(ts.URL + "/api/games/g1/sgf")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, "(;GM[1]FF[4]SZ[3]CA[UTF-8]KM[7.5]PB[b]PW[w]\n;B[bb];W[])\n", string(body))

	require.True(t, board.Play(game.Pass))
	s.OnEnd(match.Record{
		ID:     "g1",
		Black:  "b",
		White:  "w",
		Size:   3,
		Komi:   7.5,
		Moves:  board.Moves(),
		Result: board.Result(7.5),
	})
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/games/g1", &view))
	require.True(t, view.Finished)
	require.Equal(t, "B+1.5", view.Result)
	require.Equal(t, []string{"B2", "pass", "pass"}, view.Moves)

	resp, err = http.Get(ts.URL + "/api/games/g1/sgf")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), "RE[B+1.5]")

	resp, err = http.Get(ts.URL + "/api/games/nope/sgf")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerForgetsOldGames(t *testing.T) {
	s := NewServer(WithMaxGames(2))
	for _, id := range []string{"a", "b", "c"} {
		s.OnMove(moveEvent(t, id, game.NewBoard(3), game.Place(0, 0)))
	}
	views := s.snapshot()
	require.Len(t, views, 2)
	require.Equal(t, "b", views[0].ID)
	require.Equal(t, "c", views[1].ID)
}

func TestServerGenMove(t *testing.T) {
	post := func(t *testing.T, url string, req engine.GenMoveRequest) (*http.Response, engine.GenMoveResponse) {
		t.Helper()
		payload, err := json.Marshal(req)
		require.NoError(t, err)
		resp, err := http.Post(url+"/api/genmove", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()
		var answer engine.GenMoveResponse
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
		}
		return resp, answer
	}

	t.Run("no engine", func(t *testing.T) {
		ts := httptest.NewServer(NewServer().Handler())
		defer ts.Close()
		resp, _ := post(t, ts.URL, engine.GenMoveRequest{Size: 9})
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	ts := httptest.NewServer(NewServer(WithEngine(engine.NewHeuristic())).Handler())
	defer ts.Close()

	t.Run("answers", func(t *testing.T) {
		resp, answer := post(t, ts.URL, engine.GenMoveRequest{Size: 9, Komi: 7.5})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, engine.GenMoveResponse{Move: "D6", Engine: engine.HeuristicName}, answer)
	})

	t.Run("illegal history", func(t *testing.T) {
		resp, _ := post(t, ts.URL, engine.GenMoveRequest{Size: 9, Moves: []engine.GTPMove{
			{Color: "B", Vertex: "E5"},
			{Color: "W", Vertex: "E5"},
		}})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid payload", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/genmove", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("remote engine", func(t *testing.T) {
		remote := engine.NewRemote(ts.URL, 7.5)
		board := game.NewBoard(9)
		require.Equal(t, game.Place(3, 3), remote.GenMove(context.Background(), board))
		require.Equal(t, "Remote("+ts.URL+")", remote.Name())
	})
}

func TestServerWebsocket(t *testing.T) {
	s := NewServer(WithPingInterval(20 * time.Millisecond))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func(t *testing.T) wsMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	readType := func(t *testing.T, kind string) wsMessage {
		t.Helper()
		for {
			if msg := read(t); msg.Type == kind {
				return msg
			}
		}
	}

	var games []GameView
	snapshot := readType(t, "snapshot")
	require.NoError(t, json.Unmarshal(snapshot.Payload, &games))
	require.Empty(t, games)
	require.Eventually(t, func() bool { return s.Hub().Len() == 1 }, time.Second, 5*time.Millisecond)

	s.OnMove(moveEvent(t, "g1", game.NewBoard(5), game.Place(2, 2)))
	var move MoveView
	require.NoError(t, json.Unmarshal(readType(t, "move").Payload, &move))
	require.Equal(t, "g1", move.GameID)
	require.Equal(t, 1, move.Step)
	require.Equal(t, "black", move.Color)
	require.Equal(t, "C3", move.Move)
	require.Equal(t, "..X..", move.Board[2])

	readType(t, "ping")

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "request_snapshot"}))
	require.NoError(t, json.Unmarshal(readType(t, "snapshot").Payload, &games))
	require.Len(t, games, 1)

	s.Hub().Close()
	require.Zero(t, s.Hub().Len())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestServerListenAndServe(t *testing.T) {
	s := NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
