package domain

import (
	"time"

	"github.com/google/uuid"
)

// Final score weights. data_correctness carries weight even though the hard
// gate forces its score to 1.0 for every non-gated participant; the weight is
// kept as documented rather than folded into the other two.
const (
	PatternAccuracyWeight = 0.50
	DataCorrectnessWeight = 0.30
	PerformanceWeight     = 0.20
)

// Result is the scored outcome of one participant in one tournament.
// Produced exactly once per (tournament, participant) by scoring; re-running
// scoring overwrites with identical values rather than duplicating.
type Result struct {
	TournamentId    uuid.UUID
	Hotkey          string
	ParticipantType ParticipantType

	PatternAccuracyScore float64
	DataCorrectnessScore float64
	PerformanceScore     float64
	FinalScore           float64

	DataCorrectnessAllDays  bool
	AllRunsWithinTimeLimit  bool
	DaysCompleted           int
	TotalRunsCompleted      int
	AverageExecutionTime    time.Duration
	BaselineComparisonRatio float64

	Rank         int
	IsWinner     bool
	BeatBaseline bool
	MinersBeaten int

	CalculatedAt time.Time
}
