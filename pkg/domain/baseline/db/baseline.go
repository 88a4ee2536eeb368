package db

import (
	"context"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/google/uuid"
)

type Interface interface {
	// insert a new baseline row, normally in building status.
	Register(ctx context.Context, b domain.Baseline) error

	Get(ctx context.Context, id uuid.UUID) (domain.Baseline, error)

	// the single active baseline of an image type.
	//
	// Returns
	//
	// - error: ErrMissing when the image type has no active baseline (only
	// before initial seeding), ErrTooMuch when the single-active invariant
	// is broken.
	Active(ctx context.Context, imageType domain.ImageType) (domain.Baseline, error)

	// update baseline status. Activation and deprecation timestamps are set
	// with the matching status.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.BaselineStatus) error

	// flip newId to active and oldId to deprecated in one transaction, so
	// there is no moment the image type has zero active baselines.
	//
	// oldId may be uuid.Nil when this is the first baseline of its image
	// type.
	Promote(ctx context.Context, newId, oldId uuid.UUID) error

	// baselines promoted out of a given tournament. Used to keep promotion
	// idempotent.
	ByOriginTournament(ctx context.Context, tournamentId uuid.UUID) ([]domain.Baseline, error)
}
