package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

type AgentConfigRow struct {
	ID           int32  `parquet:"id"`
	Goroutines   int32  `parquet:"goroutines"`
	DurationMs   int64  `parquet:"duration_ms"`
	Simulations  int32  `parquet:"simulations"`
	RolloutLimit int32  `parquet:"rollout_limit"`
	Description  string `parquet:"description,dict"`
}

type GameRecord struct {
	ID          string  `parquet:"id"`
	Agent1      int32   `parquet:"agent1"` // AgentConfig.ID of the first config of the match up
	Agent2      int32   `parquet:"agent2"`
	BlackAgent  int32   `parquet:"black_agent"`
	Black       string  `parquet:"black,dict"`
	White       string  `parquet:"white,dict"`
	Winner      string  `parquet:"winner,dict"`
	BlackScore  float64 `parquet:"black_score"`
	WhiteScore  float64 `parquet:"white_score"`
	StartTimeMs int64   `parquet:"start_time_ms"`
	EndTimeMs   int64   `parquet:"end_time_ms"`
	DurationMs  int64   `parquet:"duration_ms"`
	TotalMoves  int32   `parquet:"total_moves"`
	SGF         string  `parquet:"sgf,zstd"`
}

type MoveRecord struct {
	Game         string `parquet:"game,dict"` // GameRecord.ID
	Step         int32  `parquet:"step"`
	Player       string `parquet:"player,dict"`
	Move         string `parquet:"move,dict"`
	Goroutines   int32  `parquet:"goroutines"`
	RolloutLimit int32  `parquet:"rollout_limit"`
	DurationUs   int64  `parquet:"duration_us"`
	Simulations  int32  `parquet:"simulations"`
	FullRollouts int32  `parquet:"full_rollouts"`
}

func NewAgentConfigRow(c AgentConfig) AgentConfigRow {
	return AgentConfigRow{
		ID:           int32(c.ID),
		Goroutines:   int32(c.Goroutines),
		DurationMs:   c.Duration.Milliseconds(),
		Simulations:  int32(c.Simulations),
		RolloutLimit: int32(c.RolloutLimit),
		Description:  fmt.Sprintf("%+v", c),
	}
}

// NewGameRecord flattens a game for storage. blackAgent is the config ID that played black.
func NewGameRecord(m GameMetric, agent1, agent2, blackAgent int, sgf string) GameRecord {
	return GameRecord{
		ID:          m.ID,
		Agent1:      int32(agent1),
		Agent2:      int32(agent2),
		BlackAgent:  int32(blackAgent),
		Black:       m.Black,
		White:       m.White,
		Winner:      m.Winner,
		BlackScore:  m.BlackScore,
		WhiteScore:  m.WhiteScore,
		StartTimeMs: m.StartTime.UnixMilli(),
		EndTimeMs:   m.EndTime.UnixMilli(),
		DurationMs:  m.Duration.Milliseconds(),
		TotalMoves:  int32(m.TotalMoves),
		SGF:         sgf,
	}
}

func NewMoveRecord(game string, m MoveMetric) MoveRecord {
	return MoveRecord{
		Game:         game,
		Step:         int32(m.Step),
		Player:       m.Player,
		Move:         m.Move,
		Goroutines:   int32(m.Goroutines),
		RolloutLimit: int32(m.RolloutLimit),
		DurationUs:   m.Duration.Microseconds(),
		Simulations:  int32(m.Simulations),
		FullRollouts: int32(m.FullRollouts),
	}
}

const (
	AgentConfigsFile = "agent_configs.parquet"
	GameRecordsFile  = "game_records.parquet"
	MoveRecordsFile  = "move_records.parquet"
)

type Writer struct {
	baseDir string
}

// NewWriter creates root/name/<timestamp>/ for the results of one experiment run.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405.000Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	rows := make([]AgentConfigRow, len(configs))
	for i, c := range configs {
		rows[i] = NewAgentConfigRow(c)
	}
	if err := writeFile(filepath.Join(w.baseDir, AgentConfigsFile), rows); err != nil {
		return fmt.Errorf("failed to write agent configs: %w", err)
	}
	return nil
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	if err := writeFile(filepath.Join(w.baseDir, GameRecordsFile), records); err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	return nil
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	if err := writeFile(filepath.Join(w.baseDir, MoveRecordsFile), records); err != nil {
		return fmt.Errorf("failed to write move records: %w", err)
	}
	return nil
}

// writeFile writes rows to a temporary file and renames it into place, so a
// reader never sees a partial file.
func writeFile[T any](path string, rows []T) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := parquet.WriteFile(tmp, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "baduk_experiment_v1"),
	); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadFile loads every row of a file written by Writer.
func ReadFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}
