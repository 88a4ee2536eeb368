package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/chainswarm/benchmark/pkg/utils/cmp"
	"github.com/google/uuid"
)

type ImageType string

const (
	Analytics ImageType = "analytics"
	ML        ImageType = "ml"
)

func (it ImageType) String() string {
	return string(it)
}

func AsImageType(s string) (ImageType, error) {
	switch s {
	case string(Analytics):
		return Analytics, nil
	case string(ML):
		return ML, nil
	default:
		return "", fmt.Errorf("'%s' is not ImageType", s)
	}
}

type TournamentStatus string

const (
	// This Tournament is created but not yet open for registration.
	Draft TournamentStatus = "draft"

	// This Tournament accepts miner registrations.
	Registration TournamentStatus = "registration"

	// This Tournament is inside its competition window; daily runs are executed.
	InProgress TournamentStatus = "in_progress"

	// All competition days are over; final scores are being computed.
	Scoring TournamentStatus = "scoring"

	// This Tournament has a persisted ranking. Terminal.
	Completed TournamentStatus = "completed"

	// This Tournament was cancelled by an operator. Terminal.
	Cancelled TournamentStatus = "cancelled"
)

func (ts TournamentStatus) String() string {
	return string(ts)
}

func AsTournamentStatus(s string) (TournamentStatus, error) {
	switch s {
	case string(Draft):
		return Draft, nil
	case string(Registration):
		return Registration, nil
	case string(InProgress):
		return InProgress, nil
	case string(Scoring):
		return Scoring, nil
	case string(Completed):
		return Completed, nil
	case string(Cancelled):
		return Cancelled, nil
	default:
		return "", fmt.Errorf("'%s' is not TournamentStatus", s)
	}
}

func (ts TournamentStatus) Terminal() bool {
	switch ts {
	case Completed, Cancelled:
		return true
	default:
		return false
	}
}

// TestMatrix is the fixed set of (network, window) combinations every
// participant is benchmarked against on every competition day. Iteration
// order is deterministic: networks outer, windows inner, both in declared
// order.
type TestMatrix struct {
	Networks   []string
	WindowDays []int
}

func (m TestMatrix) Equal(other TestMatrix) bool {
	return cmp.SliceEq(m.Networks, other.Networks) &&
		cmp.SliceEq(m.WindowDays, other.WindowDays)
}

// Each iterates the matrix in execution order.
func (m TestMatrix) Each(f func(network string, windowDays int) error) error {
	for _, network := range m.Networks {
		for _, window := range m.WindowDays {
			if err := f(network, window); err != nil {
				return err
			}
		}
	}
	return nil
}

type Tournament struct {
	Id        uuid.UUID
	Name      string
	ImageType ImageType

	// Date boundaries. All are calendar dates held as UTC midnight.
	// registration_start <= registration_end < competition_start <= competition_end,
	// and competition_end = competition_start + epoch_days - 1.
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	CompetitionStart  time.Time
	CompetitionEnd    time.Time

	MaxParticipants int
	EpochDays       int
	Matrix          TestMatrix

	// Baseline active at creation time.
	BaselineId uuid.UUID

	Status     TournamentStatus
	CurrentDay int

	// Result fields. Written once, by scoring. Empty WinnerHotkey means
	// "no winning miner".
	WinnerHotkey   string
	BaselineBeaten bool

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Date converts t to the calendar date it represents, at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayNumber maps a calendar date inside the competition window onto the
// 1-origin day counter. Dates before the window map to 0 or negative values.
func (t Tournament) DayNumber(asOf time.Time) int {
	return int(Date(asOf).Sub(Date(t.CompetitionStart))/(24*time.Hour)) + 1
}

// DateOfDay is the inverse of DayNumber.
func (t Tournament) DateOfDay(day int) time.Time {
	return Date(t.CompetitionStart).AddDate(0, 0, day-1)
}

// InCompetitionWindow reports whether asOf falls on one of the tournament's
// competition days.
func (t Tournament) InCompetitionWindow(asOf time.Time) bool {
	d := Date(asOf)
	return !d.Before(Date(t.CompetitionStart)) && !d.After(Date(t.CompetitionEnd))
}

var ErrBrokenTournamentDates = errors.New("tournament dates are inconsistent")

// Validate checks the date invariants of the tournament.
func (t Tournament) Validate() error {
	if t.RegistrationEnd.Before(t.RegistrationStart) {
		return fmt.Errorf(
			"%w: registration_end %s < registration_start %s",
			ErrBrokenTournamentDates,
			Date(t.RegistrationEnd).Format(time.DateOnly),
			Date(t.RegistrationStart).Format(time.DateOnly),
		)
	}
	if !Date(t.RegistrationEnd).Before(Date(t.CompetitionStart)) {
		return fmt.Errorf(
			"%w: competition_start %s should be after registration_end %s",
			ErrBrokenTournamentDates,
			Date(t.CompetitionStart).Format(time.DateOnly),
			Date(t.RegistrationEnd).Format(time.DateOnly),
		)
	}
	if want := Date(t.CompetitionStart).AddDate(0, 0, t.EpochDays-1); !Date(t.CompetitionEnd).Equal(want) {
		return fmt.Errorf(
			"%w: competition_end %s should be competition_start + %d days - 1 (= %s)",
			ErrBrokenTournamentDates,
			Date(t.CompetitionEnd).Format(time.DateOnly),
			t.EpochDays,
			want.Format(time.DateOnly),
		)
	}
	return nil
}

// parameter to query tournaments.
//
// When all dimensions match a tournament, this query matches the tournament.
type TournamentFindQuery struct {
	// match if tournament's image type is one of these.
	//
	// If it is nil or empty, it means "match any".
	ImageType []ImageType

	// match if tournament's status is one of these.
	//
	// If it is nil or empty, it means "match any".
	Status []TournamentStatus

	// number of matches to return at most. Zero means no limit.
	Limit int

	// number of matches to skip, in competition-start order.
	Offset int
}
