package mock

import (
	"context"
	"errors"

	"github.com/chainswarm/benchmark/pkg/domain"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	resdb "github.com/chainswarm/benchmark/pkg/domain/result/db"
	"github.com/google/uuid"
)

type ResultInterface struct {
	Impl struct {
		Put  func(ctx context.Context, tournamentId uuid.UUID, results []domain.Result) error
		List func(ctx context.Context, tournamentId uuid.UUID) ([]domain.Result, error)
	}

	Calls struct {
		Put dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Results      []domain.Result
		}]
		List dbmock.CallLog[uuid.UUID]
	}
}

func NewResultInterface() *ResultInterface {
	return &ResultInterface{}
}

var _ resdb.Interface = &ResultInterface{}

func (m *ResultInterface) Put(ctx context.Context, tournamentId uuid.UUID, results []domain.Result) error {
	m.Calls.Put = append(m.Calls.Put, struct {
		TournamentId uuid.UUID
		Results      []domain.Result
	}{TournamentId: tournamentId, Results: results})
	if m.Impl.Put != nil {
		return m.Impl.Put(ctx, tournamentId, results)
	}
	panic(errors.New("it should not be called"))
}

func (m *ResultInterface) List(ctx context.Context, tournamentId uuid.UUID) ([]domain.Result, error) {
	m.Calls.List = append(m.Calls.List, tournamentId)
	if m.Impl.List != nil {
		return m.Impl.List(ctx, tournamentId)
	}
	panic(errors.New("it should not be called"))
}
