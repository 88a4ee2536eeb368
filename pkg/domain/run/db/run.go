package db

import (
	"context"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/google/uuid"
)

type Interface interface {
	// insert a new daily run record, in pending or running status.
	//
	// At most one record may exist per
	// (tournament, participant, day, network, window); inserting a second
	// one is an error so that execution stays at-most-once.
	Register(ctx context.Context, r domain.DailyRun) error

	// write the terminal outcome of a run: status, timing, exit code,
	// metrics, correctness flags and disqualification marks.
	//
	// Runs already in a terminal status are immutable; finishing one is
	// ErrStatusConflict.
	Finish(ctx context.Context, r domain.DailyRun) error

	// all runs of one tournament day, ordered by run order.
	FindByTournamentDay(ctx context.Context, tournamentId uuid.UUID, day time.Time) ([]domain.DailyRun, error)

	// all runs of one participant across the tournament, ordered by test
	// date then run order.
	FindByParticipant(ctx context.Context, tournamentId uuid.UUID, hotkey string) ([]domain.DailyRun, error)
}
