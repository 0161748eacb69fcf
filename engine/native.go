package engine

import (
	"baduk/game"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

const NativeName = "Native-ONNX"

// Feature planes: stones of the side to move, opponent stones, constant ones.
const planes = 3

type NativeConfig struct {
	ModelPath string
	BoardSize int
	Input     string // Defaults to "input"
	Policy    string // Defaults to "policy"
	Value     string // Defaults to "value"
}

var ortInitOnce sync.Once
var ortInitErr error

// Native picks the legal move the policy network rates highest.
type Native struct {
	NopHooks
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	size    int
}

// NewNative loads the model. On any failure the returned engine plays the
// heuristic policy and names itself accordingly. The onnxruntime shared
// library path must be set by the caller beforehand.
func NewNative(cfg NativeConfig) Engine {
	n, err := loadNative(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("native engine unavailable, falling back to heuristic policy")
		return fallback("Native")
	}
	return n
}

func loadNative(cfg NativeConfig) (*Native, error) {
	if cfg.BoardSize == 0 {
		cfg.BoardSize = 19
	}
	if cfg.Input == "" {
		cfg.Input = "input"
	}
	if cfg.Policy == "" {
		cfg.Policy = "policy"
	}
	if cfg.Value == "" {
		cfg.Value = "value"
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("failed to find model: %w", err)
	}

	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("failed to init ort: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.Input}, []string{cfg.Policy, cfg.Value}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Native{session: session, size: cfg.BoardSize}, nil
}

func (n *Native) Name() string {
	return NativeName
}

func (n *Native) GenMove(_ context.Context, board *game.Board) game.Move {
	if board.Size() != n.size {
		log.Warn().Msgf("model expects a %dx%d board, got %dx%d", n.size, n.size, board.Size(), board.Size())
		return HeuristicMove(board)
	}

	policy, value, err := n.predict(features(board))
	if err != nil {
		log.Warn().Err(err).Msg("inference failed, playing heuristic move")
		return HeuristicMove(board)
	}
	log.Debug().Msgf("native value estimate %.3f", value)
	return pickMove(board, policy)
}

func (n *Native) predict(input []float32) ([]float32, float32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	size := int64(n.size)
	inputTensor, err := ort.NewTensor(ort.NewShape(1, planes, size, size), input)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	policyTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, size*size+1))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create policy tensor: %w", err)
	}
	defer policyTensor.Destroy()

	valueTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create value tensor: %w", err)
	}
	defer valueTensor.Destroy()

	err = n.session.Run([]ort.Value{inputTensor}, []ort.Value{policyTensor, valueTensor})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to run inference: %w", err)
	}

	policy := append([]float32(nil), policyTensor.GetData()...)
	return policy, valueTensor.GetData()[0], nil
}

func (n *Native) Close() error {
	return n.session.Destroy()
}

// features encodes board as [planes][size][size] from the side to move's view.
func features(board *game.Board) []float32 {
	size := board.Size()
	area := size * size
	input := make([]float32, planes*area)
	own := board.ToPlay()
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			i := r*size + c
			switch board.At(r, c) {
			case own:
				input[i] = 1
			case own.Opponent():
				input[area+i] = 1
			}
			input[2*area+i] = 1
		}
	}
	return input
}

// pickMove returns the legal move with the highest policy weight. Index
// size*size is pass; pass is chosen only when it outweighs every legal placement.
func pickMove(board *game.Board, policy []float32) game.Move {
	size := board.Size()
	best := game.Pass
	bestWeight := float32(-1)
	if len(policy) > size*size {
		bestWeight = policy[size*size]
	}
	for i := 0; i < size*size && i < len(policy); i++ {
		m := game.Place(i/size, i%size)
		if policy[i] > bestWeight && board.IsLegal(m) {
			best = m
			bestWeight = policy[i]
		}
	}
	return best
}
