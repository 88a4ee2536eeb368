package db

import (
	"context"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/google/uuid"
)

type Interface interface {
	// persist a new epoch for a tournament. One epoch per tournament.
	Register(ctx context.Context, e domain.Epoch) error

	// Returns
	//
	// - error: ErrMissing when the tournament has no epoch yet.
	GetByTournament(ctx context.Context, tournamentId uuid.UUID) (domain.Epoch, error)

	// update epoch status. Completing sets completed_at.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.EpochStatus) error
}
