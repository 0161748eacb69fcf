package engine

import (
	"baduk/game"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const KataGoName = "KataGo"

// setupTimeout bounds the initial handshake with a freshly started engine.
const setupTimeout = 30 * time.Second

type KataGoConfig struct {
	Binary    string // Defaults to "katago"
	Model     string
	Config    string
	Command   []string // Overrides Binary, Model and Config when set
	BoardSize int
	Komi      float64
}

func (c KataGoConfig) command() []string {
	if len(c.Command) > 0 {
		return c.Command
	}
	binary := c.Binary
	if binary == "" {
		binary = "katago"
	}
	return []string{binary, "gtp", "-model", c.Model, "-config", c.Config}
}

// KataGo plays through a KataGo process over GTP. The position is re-sent
// before every genmove, so the process holds no state between moves.
type KataGo struct {
	mu       sync.Mutex
	gtp      *GTP
	komi     float64
	degraded *Heuristic
}

// NewKataGo starts KataGo. If the process cannot be started or set up, the
// returned engine plays the heuristic policy and names itself accordingly.
func NewKataGo(cfg KataGoConfig, options ...GTPOption) Engine {
	k, err := startKataGo(cfg, options...)
	if err != nil {
		log.Warn().Err(err).Msg("katago unavailable, falling back to heuristic policy")
		return fallback(KataGoName)
	}
	return k
}

func startKataGo(cfg KataGoConfig, options ...GTPOption) (*KataGo, error) {
	gtp, err := StartGTP(cfg.command(), options...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	k := &KataGo{gtp: gtp, komi: cfg.Komi}
	size := cfg.BoardSize
	if size == 0 {
		size = 19
	}
	if err := k.setup(ctx, size); err != nil {
		gtp.Close()
		return nil, fmt.Errorf("failed to set up katago: %w", err)
	}
	return k, nil
}

func (k *KataGo) setup(ctx context.Context, size int) error {
	for _, command := range []string{
		fmt.Sprintf("boardsize %d", size),
		fmt.Sprintf("komi %g", k.komi),
		"clear_board",
	} {
		if _, err := k.gtp.Send(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

func (k *KataGo) Name() string {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.degraded != nil {
		return k.degraded.Name()
	}
	return KataGoName
}

func (k *KataGo) OnGameStart(board *game.Board) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.degraded != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := k.setup(ctx, board.Size()); err != nil {
		k.degrade(err)
	}
}

func (k *KataGo) OnGameEnd(*game.Board, game.Result) {}

// GenMove replays the game into KataGo and asks for a move. Answers that are
// resignations, unparsable or illegal become the first legal placement.
func (k *KataGo) GenMove(ctx context.Context, board *game.Board) game.Move {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.degraded != nil {
		return k.degraded.GenMove(ctx, board)
	}

	response, err := k.genmove(ctx, board)
	var gtpErr *GTPError
	switch {
	case errors.As(err, &gtpErr):
		log.Warn().Err(err).Msg("katago rejected the position, playing first legal move")
		return FirstLegal(board)
	case err != nil:
		k.degrade(err)
		return k.degraded.GenMove(ctx, board)
	}

	return parseGenMove(board, response)
}

func (k *KataGo) genmove(ctx context.Context, board *game.Board) (string, error) {
	if _, err := k.gtp.Send(ctx, "clear_board"); err != nil {
		return "", err
	}
	for _, r := range board.Moves() {
		command := fmt.Sprintf("play %s %s", gtpColor(r.Color), game.FormatMove(board.Size(), r.Move))
		if _, err := k.gtp.Send(ctx, command); err != nil {
			return "", err
		}
	}
	return k.gtp.Send(ctx, "genmove "+gtpColor(board.ToPlay()))
}

func (k *KataGo) degrade(err error) {
	log.Warn().Err(err).Msg("katago failed, falling back to heuristic policy")
	k.degraded = fallback(KataGoName)
	k.gtp.Close()
}

func (k *KataGo) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.gtp.Close()
}

func parseGenMove(board *game.Board, response string) game.Move {
	response = strings.TrimSpace(response)
	if response == "" || strings.EqualFold(response, "resign") {
		return FirstLegal(board)
	}
	move := board.FromCoord(response)
	if !move.IsValid() || !board.IsLegal(move) {
		return FirstLegal(board)
	}
	return move
}

func gtpColor(c game.Color) string {
	if c == game.White {
		return "W"
	}
	return "B"
}
