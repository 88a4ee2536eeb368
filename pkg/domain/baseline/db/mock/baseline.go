package mock

import (
	"context"
	"errors"

	"github.com/chainswarm/benchmark/pkg/domain"
	bdb "github.com/chainswarm/benchmark/pkg/domain/baseline/db"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	"github.com/google/uuid"
)

type BaselineInterface struct {
	Impl struct {
		Register           func(ctx context.Context, b domain.Baseline) error
		Get                func(ctx context.Context, id uuid.UUID) (domain.Baseline, error)
		Active             func(ctx context.Context, imageType domain.ImageType) (domain.Baseline, error)
		SetStatus          func(ctx context.Context, id uuid.UUID, status domain.BaselineStatus) error
		Promote            func(ctx context.Context, newId, oldId uuid.UUID) error
		ByOriginTournament func(ctx context.Context, tournamentId uuid.UUID) ([]domain.Baseline, error)
	}

	Calls struct {
		Register  dbmock.CallLog[domain.Baseline]
		Get       dbmock.CallLog[uuid.UUID]
		Active    dbmock.CallLog[domain.ImageType]
		SetStatus dbmock.CallLog[struct {
			Id     uuid.UUID
			Status domain.BaselineStatus
		}]
		Promote dbmock.CallLog[struct {
			NewId, OldId uuid.UUID
		}]
		ByOriginTournament dbmock.CallLog[uuid.UUID]
	}
}

func NewBaselineInterface() *BaselineInterface {
	return &BaselineInterface{}
}

var _ bdb.Interface = &BaselineInterface{}

func (m *BaselineInterface) Register(ctx context.Context, b domain.Baseline) error {
	m.Calls.Register = append(m.Calls.Register, b)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, b)
	}
	panic(errors.New("it should not be called"))
}

func (m *BaselineInterface) Get(ctx context.Context, id uuid.UUID) (domain.Baseline, error) {
	m.Calls.Get = append(m.Calls.Get, id)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *BaselineInterface) Active(ctx context.Context, imageType domain.ImageType) (domain.Baseline, error) {
	m.Calls.Active = append(m.Calls.Active, imageType)
	if m.Impl.Active != nil {
		return m.Impl.Active(ctx, imageType)
	}
	panic(errors.New("it should not be called"))
}

func (m *BaselineInterface) SetStatus(ctx context.Context, id uuid.UUID, status domain.BaselineStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		Id     uuid.UUID
		Status domain.BaselineStatus
	}{Id: id, Status: status})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, id, status)
	}
	panic(errors.New("it should not be called"))
}

func (m *BaselineInterface) Promote(ctx context.Context, newId, oldId uuid.UUID) error {
	m.Calls.Promote = append(m.Calls.Promote, struct {
		NewId, OldId uuid.UUID
	}{NewId: newId, OldId: oldId})
	if m.Impl.Promote != nil {
		return m.Impl.Promote(ctx, newId, oldId)
	}
	panic(errors.New("it should not be called"))
}

func (m *BaselineInterface) ByOriginTournament(ctx context.Context, tournamentId uuid.UUID) ([]domain.Baseline, error) {
	m.Calls.ByOriginTournament = append(m.Calls.ByOriginTournament, tournamentId)
	if m.Impl.ByOriginTournament != nil {
		return m.Impl.ByOriginTournament(ctx, tournamentId)
	}
	panic(errors.New("it should not be called"))
}
