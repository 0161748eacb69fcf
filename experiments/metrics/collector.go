package metrics

import (
	"sync/atomic"
	"time"
)

type AgentConfig struct {
	ID           int
	Goroutines   int
	Duration     time.Duration
	Simulations  int
	RolloutLimit int
}

type SearchMetric struct {
	Goroutines   int
	RolloutLimit int
	Duration     time.Duration
	Simulations  int
	FullRollouts int // Rollouts that ended with two passes rather than at the limit
}

type MoveMetric struct {
	Step   int
	Player string // Color name
	Move   string // Coordinate or "pass"
	SearchMetric
}

type GameMetric struct {
	ID         string
	Black      string // Engine name
	White      string // Engine name
	Winner     string // Color name or "draw"
	BlackScore float64
	WhiteScore float64
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
}

type Collector interface {
	Start(goroutines, rolloutLimit int)
	AddSimulation()
	AddFullRollout()
	Complete() SearchMetric
}

type collector struct {
	goroutines   int
	rolloutLimit int
	startTime    time.Time
	simulations  atomic.Int32
	fullRollouts atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines, rolloutLimit int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.rolloutLimit = rolloutLimit
	m.simulations.Store(0)
	m.fullRollouts.Store(0)
}

func (m *collector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *collector) AddFullRollout() {
	m.fullRollouts.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Goroutines:   m.goroutines,
		RolloutLimit: m.rolloutLimit,
		Duration:     time.Since(m.startTime),
		Simulations:  int(m.simulations.Load()),
		FullRollouts: int(m.fullRollouts.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, rolloutLimit int) {}
func (m *dummyCollector) AddSimulation()                     {}
func (m *dummyCollector) AddFullRollout()                    {}
func (m *dummyCollector) Complete() SearchMetric             { return SearchMetric{} }
