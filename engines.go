package main

import (
	"baduk/engine"
	"baduk/meta"
	"baduk/searcher"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// engineFlags configures every kind of engine a subcommand may build.
type engineFlags struct {
	simulations  int
	duration     time.Duration
	goroutines   int
	rolloutLimit int
	exploration  float64
	seed         uint64
	temperature  float64

	katago       string
	katagoModel  string
	katagoConfig string

	model   string
	onnxLib string

	remote string
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.simulations, "simulations", meta.Simulations, "MCTS simulations per move")
	fs.DurationVar(&f.duration, "duration", 0, "MCTS time per move, used instead of simulations when set")
	fs.IntVar(&f.goroutines, "goroutines", meta.Goroutines, "Goroutines per search")
	fs.IntVar(&f.rolloutLimit, "rollout-limit", meta.RolloutLimit, "Maximum moves per random playout")
	fs.Float64Var(&f.exploration, "exploration", meta.Exploration, "UCB exploration constant")
	fs.Uint64Var(&f.seed, "seed", 0, "Search seed, 0 for time based")
	fs.Float64Var(&f.temperature, "temperature", 0, "Sample moves from visit counts with this temperature (selfplay engine)")
	fs.StringVar(&f.katago, "katago", "katago", "KataGo binary")
	fs.StringVar(&f.katagoModel, "katago-model", "", "KataGo model file")
	fs.StringVar(&f.katagoConfig, "katago-config", "", "KataGo GTP config file")
	fs.StringVar(&f.model, "model", "", "ONNX policy model for the native engine")
	fs.StringVar(&f.onnxLib, "onnx-lib", os.Getenv("ONNXRUNTIME_LIB"), "onnxruntime shared library")
	fs.StringVar(&f.remote, "remote", "", "Base URL of a move server for the remote engine")
}

func (f *engineFlags) options(komi float64) []searcher.Option {
	options := []searcher.Option{
		searcher.WithGoroutines(f.goroutines),
		searcher.WithRolloutLimit(f.rolloutLimit),
		searcher.WithExploration(f.exploration),
		searcher.WithKomi(komi),
		searcher.WithMetrics(),
	}
	if f.duration > 0 {
		options = append(options, searcher.WithDuration(f.duration))
	} else {
		options = append(options, searcher.WithSimulations(f.simulations))
	}
	if f.seed != 0 {
		options = append(options, searcher.WithSeed(f.seed))
	}
	return options
}

// build returns the engine named kind: baseline, selfplay, heuristic, katago, native or remote.
func (f *engineFlags) build(kind string, size int, komi float64) (engine.Engine, error) {
	switch strings.ToLower(kind) {
	case "baseline", "mcts":
		if f.duration > 0 {
			return engine.NewTimedBaseline(f.duration, f.options(komi)...), nil
		}
		return engine.NewBaseline(searcher.NewMCTS(f.options(komi)...)), nil
	case "selfplay":
		temperature := f.temperature
		if temperature <= 0 {
			temperature = 1
		}
		seed := f.seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return engine.NewSelfPlay(searcher.NewMCTS(f.options(komi)...), temperature, seed), nil
	case "heuristic":
		return engine.NewHeuristic(), nil
	case "katago":
		return engine.NewKataGo(engine.KataGoConfig{
			Binary:    f.katago,
			Model:     f.katagoModel,
			Config:    f.katagoConfig,
			BoardSize: size,
			Komi:      komi,
		}), nil
	case "native", "onnx":
		if f.onnxLib != "" {
			ort.SetSharedLibraryPath(f.onnxLib)
		}
		return engine.NewNative(engine.NativeConfig{ModelPath: f.model, BoardSize: size}), nil
	case "remote":
		if f.remote == "" {
			return nil, fmt.Errorf("remote engine needs -remote")
		}
		return engine.NewRemote(strings.TrimRight(f.remote, "/"), komi), nil
	}
	return nil, fmt.Errorf("unknown engine %q", kind)
}

func closeEngines(engines ...engine.Engine) {
	for _, e := range engines {
		if err := engine.Close(e); err != nil {
			log.Warn().Err(err).Msgf("failed to close engine %s", e.Name())
		}
	}
}
