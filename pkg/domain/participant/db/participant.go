package db

import (
	"context"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/google/uuid"
)

type Interface interface {
	// register a miner participant.
	//
	// The registration order is assigned inside the same transaction as
	// the insert, from a counter on the tournament row that only grows;
	// orders of withdrawn miners are never handed out again. The
	// tournament row is locked while checking that it is still in
	// registration status and that the miner count is under capacity.
	//
	// The RegistrationOrder field of the passed participant is ignored.
	//
	// Returns
	//
	// - int: the assigned registration order.
	//
	// - error: ErrMissing (no such tournament),
	// ErrPhaseViolation (tournament is not in registration status),
	// ErrCapacityExceeded,
	// ErrAlreadyRegistered (hotkey already registered for the tournament).
	Register(ctx context.Context, p domain.Participant) (int, error)

	// insert the baseline entrant with order 0. Called once, at tournament
	// creation, regardless of the capacity check.
	//
	// Returns
	//
	// - error: ErrAlreadyRegistered when the tournament already has a
	// baseline entrant.
	AttachBaseline(ctx context.Context, p domain.Participant) error

	Get(ctx context.Context, tournamentId uuid.UUID, hotkey string) (domain.Participant, error)

	// list all participants of a tournament, ordered by registration order.
	List(ctx context.Context, tournamentId uuid.UUID) ([]domain.Participant, error)

	// set every registered participant of the tournament to active.
	ActivateAll(ctx context.Context, tournamentId uuid.UUID) error

	SetStatus(ctx context.Context, tournamentId uuid.UUID, hotkey string, status domain.ParticipantStatus) error

	// mark a participant disqualified, non-reversibly.
	//
	// Once disqualified, the participant's status, reason and day are never
	// overwritten by a second disqualification.
	Disqualify(ctx context.Context, tournamentId uuid.UUID, hotkey string, reason domain.DisqualificationReason, day int) error

	// increment the cumulative correctness-strike counter and return the
	// new count.
	AddStrike(ctx context.Context, tournamentId uuid.UUID, hotkey string) (int, error)

	// remove a participant row. Only legal while the tournament is in
	// registration status; callers enforce the phase.
	Delete(ctx context.Context, tournamentId uuid.UUID, hotkey string) error
}
