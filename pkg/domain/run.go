package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	// Run record exists; execution has not finished yet.
	RunPending RunStatus = "pending"

	// Container is executing.
	RunRunning RunStatus = "running"

	// Container exited zero and the output was inspected.
	RunCompleted RunStatus = "completed"

	// Container exceeded the execution time limit and was killed.
	RunTimeout RunStatus = "timeout"

	// Container exited non-zero, or could not be executed at all.
	RunFailed RunStatus = "failed"
)

func (rs RunStatus) String() string {
	return string(rs)
}

func AsRunStatus(s string) (RunStatus, error) {
	switch s {
	case string(RunPending):
		return RunPending, nil
	case string(RunRunning):
		return RunRunning, nil
	case string(RunCompleted):
		return RunCompleted, nil
	case string(RunTimeout):
		return RunTimeout, nil
	case string(RunFailed):
		return RunFailed, nil
	default:
		return "", fmt.Errorf("'%s' is not RunStatus", s)
	}
}

func (rs RunStatus) Terminal() bool {
	switch rs {
	case RunCompleted, RunTimeout, RunFailed:
		return true
	default:
		return false
	}
}

// Connection is a directed edge a workload claims to have observed.
type Connection struct {
	From string
	To   string
}

// ReportedPattern is one pattern a workload claims to have found.
type ReportedPattern struct {
	Addresses []string
}

// RunReport is what a participant's workload reported for one run:
// the patterns it claims to have found, with every address and connection
// it references. This replaces the loosely keyed result dictionaries of
// earlier revisions with named, typed fields.
type RunReport struct {
	Patterns    []ReportedPattern
	Addresses   []string
	Connections []Connection
}

func (r RunReport) PatternsReported() int {
	return len(r.Patterns)
}

// Audit is the verdict of the domain-correctness check against ground
// truth for one run.
type Audit struct {
	PatternsExpected  int
	PatternsFound     int
	Recall            float64
	CorrectnessPassed bool
}

// DailyRun is one measured execution of one participant's workload for one
// (day, network, window) combination. At most one attempt is made per
// combination, so timings stay comparable. Immutable once terminal.
type DailyRun struct {
	Id           uuid.UUID
	EpochId      uuid.UUID
	TournamentId uuid.UUID

	Hotkey          string
	ParticipantType ParticipantType
	RunOrder        int

	TestDate   time.Time
	Network    string
	WindowDays int

	ExecutionTime time.Duration
	ExitCode      int

	PatternsExpected int
	PatternsFound    int
	Recall           float64

	AllAddressesExist     bool
	AllConnectionsExist   bool
	DataCorrectnessPassed bool

	Status       RunStatus
	ErrorMessage string

	Disqualified           bool
	DisqualificationReason DisqualificationReason

	CreatedAt time.Time
}
