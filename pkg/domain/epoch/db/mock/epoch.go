package mock

import (
	"context"
	"errors"

	"github.com/chainswarm/benchmark/pkg/domain"
	edb "github.com/chainswarm/benchmark/pkg/domain/epoch/db"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	"github.com/google/uuid"
)

type EpochInterface struct {
	Impl struct {
		Register        func(ctx context.Context, e domain.Epoch) error
		GetByTournament func(ctx context.Context, tournamentId uuid.UUID) (domain.Epoch, error)
		SetStatus       func(ctx context.Context, id uuid.UUID, status domain.EpochStatus) error
	}

	Calls struct {
		Register        dbmock.CallLog[domain.Epoch]
		GetByTournament dbmock.CallLog[uuid.UUID]
		SetStatus       dbmock.CallLog[struct {
			Id     uuid.UUID
			Status domain.EpochStatus
		}]
	}
}

func NewEpochInterface() *EpochInterface {
	return &EpochInterface{}
}

var _ edb.Interface = &EpochInterface{}

func (m *EpochInterface) Register(ctx context.Context, e domain.Epoch) error {
	m.Calls.Register = append(m.Calls.Register, e)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, e)
	}
	panic(errors.New("it should not be called"))
}

func (m *EpochInterface) GetByTournament(ctx context.Context, tournamentId uuid.UUID) (domain.Epoch, error) {
	m.Calls.GetByTournament = append(m.Calls.GetByTournament, tournamentId)
	if m.Impl.GetByTournament != nil {
		return m.Impl.GetByTournament(ctx, tournamentId)
	}
	panic(errors.New("it should not be called"))
}

func (m *EpochInterface) SetStatus(ctx context.Context, id uuid.UUID, status domain.EpochStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		Id     uuid.UUID
		Status domain.EpochStatus
	}{Id: id, Status: status})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, id, status)
	}
	panic(errors.New("it should not be called"))
}
