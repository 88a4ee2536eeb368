package db

import (
	"context"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/google/uuid"
)

type Interface interface {
	// replace the whole result set of a tournament atomically.
	//
	// Scoring may be re-run; the same inputs produce the same results, and
	// re-running overwrites instead of duplicating.
	Put(ctx context.Context, tournamentId uuid.UUID, results []domain.Result) error

	// results of a tournament ordered by rank. Empty when not scored yet.
	List(ctx context.Context, tournamentId uuid.UUID) ([]domain.Result, error)
}
