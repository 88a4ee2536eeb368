package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ParticipantType string

const (
	Miner             ParticipantType = "miner"
	BaselineReference ParticipantType = "baseline"
)

func (pt ParticipantType) String() string {
	return string(pt)
}

func AsParticipantType(s string) (ParticipantType, error) {
	switch s {
	case string(Miner):
		return Miner, nil
	case string(BaselineReference):
		return BaselineReference, nil
	default:
		return "", fmt.Errorf("'%s' is not ParticipantType", s)
	}
}

type ParticipantStatus string

const (
	// Registered for a tournament which has not started yet.
	Registered ParticipantStatus = "registered"

	// Competing. Daily runs are scheduled for this participant.
	Active ParticipantStatus = "active"

	// Finished the tournament with a non-zero score.
	ParticipantCompleted ParticipantStatus = "completed"

	// Withdrew or could not be benchmarked.
	ParticipantFailed ParticipantStatus = "failed"

	// Excluded from all further runs. Terminal and non-reversible.
	Disqualified ParticipantStatus = "disqualified"
)

func (ps ParticipantStatus) String() string {
	return string(ps)
}

func AsParticipantStatus(s string) (ParticipantStatus, error) {
	switch s {
	case string(Registered):
		return Registered, nil
	case string(Active):
		return Active, nil
	case string(ParticipantCompleted):
		return ParticipantCompleted, nil
	case string(ParticipantFailed):
		return ParticipantFailed, nil
	case string(Disqualified):
		return Disqualified, nil
	default:
		return "", fmt.Errorf("'%s' is not ParticipantStatus", s)
	}
}

// Runnable reports whether daily runs may still be scheduled for a
// participant in this status.
func (ps ParticipantStatus) Runnable() bool {
	switch ps {
	case Registered, Active:
		return true
	default:
		return false
	}
}

type DisqualificationReason string

const (
	FabricatedAddress          DisqualificationReason = "fabricated_address"
	FabricatedConnection       DisqualificationReason = "fabricated_connection"
	RepeatedCorrectnessFailure DisqualificationReason = "repeated_correctness_failure"
	NoCompletedRuns            DisqualificationReason = "no_completed_runs"
)

// AsDisqualificationReason parses s. The empty string parses to the zero
// reason, since most records carry no reason at all.
func AsDisqualificationReason(s string) (DisqualificationReason, error) {
	switch s {
	case "":
		return "", nil
	case string(FabricatedAddress):
		return FabricatedAddress, nil
	case string(FabricatedConnection):
		return FabricatedConnection, nil
	case string(RepeatedCorrectnessFailure):
		return RepeatedCorrectnessFailure, nil
	case string(NoCompletedRuns):
		return NoCompletedRuns, nil
	default:
		return "", fmt.Errorf("'%s' is not DisqualificationReason", s)
	}
}

type Participant struct {
	TournamentId uuid.UUID

	// Miner hotkey, or "baseline_<version>" for the baseline entrant.
	Hotkey string

	Type ParticipantType

	// 0 is reserved for the baseline. Miners get 1, 2, 3, ... in
	// registration order; orders are never reused or reordered.
	RegistrationOrder int

	// Where the workload comes from.
	Repository string
	ImageRef   string

	// Isolated result store assigned to this participant.
	DatabaseName string

	// Set for the baseline entrant only.
	BaselineId *uuid.UUID

	Status ParticipantStatus

	// Cumulative correctness-failure counter for this tournament.
	// Never reset.
	CorrectnessStrikes int

	DisqualificationReason DisqualificationReason
	DisqualifiedOnDay      int

	RegisteredAt time.Time
	UpdatedAt    time.Time
}

func (p Participant) IsBaseline() bool {
	return p.Type == BaselineReference
}
