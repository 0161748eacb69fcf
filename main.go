package main

import (
	"baduk/engine"
	"baduk/experiments"
	"baduk/game"
	"baduk/match"
	"baduk/meta"
	"baduk/spectate"
	"baduk/tui"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: baduk [-log-level level] <command> [flags]

commands:
  play        play against an engine in the terminal
  selfplay    play engines against each other and save the games as SGF
  katago      play KataGo against the baseline engine
  experiment  run a predefined experiment and store parquet results
  serve       serve spectators and answer remote move requests

MCTS engines pass only when no placement is legal, so selfplay games between
them normally run to -max-moves.
`

func main() {
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	setupLogging(*logLevel, os.Stderr)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Error().Err(err).Msgf("%s failed", flag.Arg(0))
		os.Exit(1)
	}
}

func setupLogging(level string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
}

func run(ctx context.Context, command string, args []string) error {
	switch command {
	case "play":
		return runPlay(args)
	case "selfplay":
		return runSelfPlay(ctx, "selfplay", args)
	case "katago":
		return runSelfPlay(ctx, "katago", args)
	case "experiment":
		return runExperiment(ctx, args)
	case "serve":
		return runServe(ctx, args)
	}
	return fmt.Errorf("unknown command %q", command)
}

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	kind := fs.String("engine", "baseline", "Opponent engine")
	size := fs.Int("size", meta.BoardSize, "Board size")
	komi := fs.Float64("komi", meta.Komi, "Komi")
	color := fs.String("color", "black", "Your colour: black or white")
	logFile := fs.String("log-file", "", "Write logs to this file while the board is shown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Logs would corrupt the board
	out := io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: true})

	human := game.Black
	if *color == "white" {
		human = game.White
	}
	e, err := ef.build(*kind, *size, *komi)
	if err != nil {
		return err
	}
	defer closeEngines(e)

	result, err := tui.Run(e, human, *size, *komi, 2 * *size * *size)
	if err != nil {
		return err
	}
	fmt.Printf("%s vs %s: %s\n", human, e.Name(), result)
	return nil
}

func runSelfPlay(ctx context.Context, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	blackKind, whiteKind := "baseline", "baseline"
	if name == "katago" {
		blackKind = "katago"
	}
	black := fs.String("black", blackKind, "Black engine")
	white := fs.String("white", whiteKind, "White engine")
	games := fs.Int("games", 1, "Number of games; colours swap every game")
	size := fs.Int("size", meta.BoardSize, "Board size")
	komi := fs.Float64("komi", meta.Komi, "Komi")
	maxMoves := fs.Int("max-moves", meta.MaxMoves, "Move limit per game")
	out := fs.String("out", "games", "Directory for SGF records, empty to skip")
	addr := fs.String("spectate", "", "Serve spectators on this address while playing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := ef.build(*black, *size, *komi)
	if err != nil {
		return err
	}
	w, err := ef.build(*white, *size, *komi)
	if err != nil {
		closeEngines(b)
		return err
	}
	defer closeEngines(b, w)

	options := []match.Option{match.WithSize(*size), match.WithKomi(*komi), match.WithMaxMoves(*maxMoves)}
	if *addr != "" {
		server := spectate.NewServer()
		serveCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := server.ListenAndServe(serveCtx, *addr); err != nil {
				log.Error().Err(err).Msg("spectator server failed")
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
		options = append(options, match.WithObserver(server))
	}
	if *out != "" {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	wins := map[string]int{}
	for i := 0; i < *games; i++ {
		first, second := b, w
		if i%2 == 1 {
			first, second = w, b
		}
		rec, err := match.Run(ctx, first, second, options...)
		if err != nil {
			return err
		}
		switch rec.Result.Outcome {
		case game.BlackWins:
			wins[rec.Black]++
		case game.WhiteWins:
			wins[rec.White]++
		}
		if *out != "" {
			path := filepath.Join(*out, rec.ID+".sgf")
			if err := os.WriteFile(path, []byte(rec.SGF()), 0o644); err != nil {
				return fmt.Errorf("failed to write game record: %w", err)
			}
			log.Info().Msgf("saved %s", path)
		}
		log.Info().Msgf("game %d of %d: %s (black) vs %s (white): %s", i+1, *games, rec.Black, rec.White, rec.Result)
	}
	for _, e := range []engine.Engine{b, w} {
		log.Info().Msgf("%s won %d of %d", e.Name(), wins[e.Name()], *games)
	}
	return nil
}

func runExperiment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experiment", flag.ContinueOnError)
	name := fs.String("name", "strength", "Experiment: strength, throughput or rollout")
	out := fs.String("out", "experiments", "Root directory for results")
	games := fs.Int("games", 0, "Games per match up, 0 for the experiment default")
	size := fs.Int("size", meta.BoardSize, "Board size")
	parallel := fs.Int("parallel", 0, "Games played at once, 0 for one per CPU")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := experiments.Named(*name)
	if err != nil {
		return err
	}
	if *games > 0 {
		e.Games = *games
	}
	e.Size = *size
	e.MaxMoves = 2 * *size * *size
	if *parallel > 0 {
		e.Parallel = *parallel
	}

	dir, err := experiments.Run(ctx, e, *out)
	if err != nil {
		return err
	}
	log.Info().Msgf("results stored in %s", dir)
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	addr := fs.String("addr", ":8080", "Listen address")
	kind := fs.String("engine", "baseline", "Engine answering /api/genmove, empty for none")
	size := fs.Int("size", meta.BoardSize, "Board size the engine is prepared for")
	komi := fs.Float64("komi", meta.Komi, "Komi")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var options []spectate.Option
	if *kind != "" {
		e, err := ef.build(*kind, *size, *komi)
		if err != nil {
			return err
		}
		defer closeEngines(e)
		options = append(options, spectate.WithEngine(e))
	}
	return spectate.NewServer(options...).ListenAndServe(ctx, *addr)
}
