package tournaments

import (
	"github.com/chainswarm/benchmark/pkg/api/types/misc/rfctime"
)

// Summary is the list representation of a tournament.
type Summary struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	ImageType string `json:"imageType"`
	Status    string `json:"status"`

	RegistrationStart rfctime.Date `json:"registrationStart"`
	RegistrationEnd   rfctime.Date `json:"registrationEnd"`
	CompetitionStart  rfctime.Date `json:"competitionStart"`
	CompetitionEnd    rfctime.Date `json:"competitionEnd"`

	MaxParticipants int      `json:"maxParticipants"`
	EpochDays       int      `json:"epochDays"`
	Networks        []string `json:"networks"`
	WindowDays      []int    `json:"windowDays"`

	// 0 before the competition starts.
	CurrentDay int `json:"currentDay"`

	// set on completed tournaments only. Empty winnerHotkey on a
	// completed tournament means no miner won.
	WinnerHotkey   string `json:"winnerHotkey,omitempty"`
	BaselineBeaten bool   `json:"baselineBeaten,omitempty"`

	CreatedAt rfctime.RFC3339 `json:"createdAt"`
}

// Participant is one entrant of a tournament.
type Participant struct {
	Hotkey            string `json:"hotkey"`
	Type              string `json:"type"`
	RegistrationOrder int    `json:"registrationOrder"`
	Status            string `json:"status"`

	CorrectnessStrikes     int    `json:"correctnessStrikes"`
	DisqualificationReason string `json:"disqualificationReason,omitempty"`
	DisqualifiedOnDay      int    `json:"disqualifiedOnDay,omitempty"`

	RegisteredAt rfctime.RFC3339 `json:"registeredAt"`
}

type Detail struct {
	Summary
	Participants []Participant `json:"participants"`
}

// LeaderboardEntry is one scored participant in rank order.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Hotkey string `json:"hotkey"`
	Type   string `json:"type"`

	PatternAccuracyScore float64 `json:"patternAccuracyScore"`
	DataCorrectnessScore float64 `json:"dataCorrectnessScore"`
	PerformanceScore     float64 `json:"performanceScore"`
	FinalScore           float64 `json:"finalScore"`

	DaysCompleted           int     `json:"daysCompleted"`
	TotalRunsCompleted      int     `json:"totalRunsCompleted"`
	AverageExecutionSeconds float64 `json:"averageExecutionSeconds"`
	BaselineComparisonRatio float64 `json:"baselineComparisonRatio"`

	IsWinner     bool `json:"isWinner"`
	BeatBaseline bool `json:"beatBaseline"`
	MinersBeaten int  `json:"minersBeaten"`

	// set when the participant was disqualified.
	DisqualificationReason string `json:"disqualificationReason,omitempty"`
}

type Leaderboard struct {
	TournamentId string             `json:"tournamentId"`
	Status       string             `json:"status"`
	CalculatedAt rfctime.RFC3339    `json:"calculatedAt"`
	Entries      []LeaderboardEntry `json:"entries"`
}

// Run is one measured workload execution.
type Run struct {
	Hotkey     string       `json:"hotkey"`
	Type       string       `json:"type"`
	RunOrder   int          `json:"runOrder"`
	TestDate   rfctime.Date `json:"testDate"`
	Network    string       `json:"network"`
	WindowDays int          `json:"windowDays"`

	Status           string  `json:"status"`
	ExecutionSeconds float64 `json:"executionSeconds"`
	ExitCode         int     `json:"exitCode"`

	PatternsExpected      int     `json:"patternsExpected"`
	PatternsFound         int     `json:"patternsFound"`
	Recall                float64 `json:"recall"`
	DataCorrectnessPassed bool    `json:"dataCorrectnessPassed"`

	Disqualified           bool   `json:"disqualified,omitempty"`
	DisqualificationReason string `json:"disqualificationReason,omitempty"`
	ErrorMessage           string `json:"errorMessage,omitempty"`
}

// History is everything recorded about one participant of a tournament.
type History struct {
	Participant
	Runs []Run `json:"runs"`
}

// RegistrationRequest is the body of a miner registration call. The rest
// of the registration record comes from the miner directory, not from the
// caller.
type RegistrationRequest struct {
	Hotkey string `json:"hotkey"`
}
