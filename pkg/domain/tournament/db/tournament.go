package db

import (
	"context"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/google/uuid"
)

type Interface interface {
	// persist a new tournament in draft status.
	//
	// Returns
	//
	// - error: domain.ErrBrokenTournamentDates when the date invariants do
	// not hold.
	Register(ctx context.Context, t domain.Tournament) error

	// Get the current version of a tournament.
	//
	// Returns
	//
	// - error: ErrMissing when no tournament has the id.
	Get(ctx context.Context, id uuid.UUID) (domain.Tournament, error)

	// find tournaments matching the query, ordered by competition start.
	Find(ctx context.Context, query domain.TournamentFindQuery) ([]domain.Tournament, error)

	// update tournament status with compare-and-set semantics.
	//
	// The write succeeds only when the persisted status still equals `from`;
	// two overlapping invocations cannot both apply a transition from the
	// same starting status.
	//
	// Returns
	//
	// - error: ErrMissing (no such tournament),
	// ErrStatusConflict (persisted status is not `from`).
	SetStatus(ctx context.Context, id uuid.UUID, from, to domain.TournamentStatus) error

	// update the current-day counter of a tournament in progress.
	SetCurrentDay(ctx context.Context, id uuid.UUID, day int) error

	// move a tournament from scoring to completed, recording the winner
	// fields and completion time in the same write.
	//
	// winnerHotkey is empty when no miner won.
	//
	// Returns
	//
	// - error: ErrMissing, ErrStatusConflict (status is not scoring).
	Complete(ctx context.Context, id uuid.UUID, winnerHotkey string, baselineBeaten bool) error
}
