package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EpochStatus string

const (
	EpochPending   EpochStatus = "pending"
	EpochRunning   EpochStatus = "running"
	EpochCompleted EpochStatus = "completed"
	EpochFailed    EpochStatus = "failed"
)

func (es EpochStatus) String() string {
	return string(es)
}

func AsEpochStatus(s string) (EpochStatus, error) {
	switch s {
	case string(EpochPending):
		return EpochPending, nil
	case string(EpochRunning):
		return EpochRunning, nil
	case string(EpochCompleted):
		return EpochCompleted, nil
	case string(EpochFailed):
		return EpochFailed, nil
	default:
		return "", fmt.Errorf("'%s' is not EpochStatus", s)
	}
}

// Epoch is the fixed-length execution window of one tournament.
// It spans competition_start..competition_end and tracks its own status,
// which is coarser than the tournament's: the epoch covers the run envelope
// only, while the tournament status covers the whole lifecycle.
type Epoch struct {
	Id           uuid.UUID
	TournamentId uuid.UUID
	ImageType    ImageType
	StartDate    time.Time
	EndDate      time.Time
	Status       EpochStatus
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

func (e Epoch) DurationDays() int {
	return int(Date(e.EndDate).Sub(Date(e.StartDate))/(24*time.Hour)) + 1
}
