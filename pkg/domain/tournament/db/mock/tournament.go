package mock

import (
	"context"
	"errors"

	"github.com/chainswarm/benchmark/pkg/domain"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	"github.com/google/uuid"
)

type TournamentInterface struct {
	Impl struct {
		Register      func(ctx context.Context, t domain.Tournament) error
		Get           func(ctx context.Context, id uuid.UUID) (domain.Tournament, error)
		Find          func(ctx context.Context, query domain.TournamentFindQuery) ([]domain.Tournament, error)
		SetStatus     func(ctx context.Context, id uuid.UUID, from, to domain.TournamentStatus) error
		SetCurrentDay func(ctx context.Context, id uuid.UUID, day int) error
		Complete      func(ctx context.Context, id uuid.UUID, winnerHotkey string, baselineBeaten bool) error
	}

	Calls struct {
		Register  dbmock.CallLog[domain.Tournament]
		Get       dbmock.CallLog[uuid.UUID]
		Find      dbmock.CallLog[domain.TournamentFindQuery]
		SetStatus dbmock.CallLog[struct {
			Id       uuid.UUID
			From, To domain.TournamentStatus
		}]
		SetCurrentDay dbmock.CallLog[struct {
			Id  uuid.UUID
			Day int
		}]
		Complete dbmock.CallLog[struct {
			Id             uuid.UUID
			WinnerHotkey   string
			BaselineBeaten bool
		}]
	}
}

func NewTournamentInterface() *TournamentInterface {
	return &TournamentInterface{}
}

var _ tdb.Interface = &TournamentInterface{}

func (m *TournamentInterface) Register(ctx context.Context, t domain.Tournament) error {
	m.Calls.Register = append(m.Calls.Register, t)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, t)
	}
	panic(errors.New("it should not be called"))
}

func (m *TournamentInterface) Get(ctx context.Context, id uuid.UUID) (domain.Tournament, error) {
	m.Calls.Get = append(m.Calls.Get, id)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (m *TournamentInterface) Find(ctx context.Context, query domain.TournamentFindQuery) ([]domain.Tournament, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *TournamentInterface) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.TournamentStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		Id       uuid.UUID
		From, To domain.TournamentStatus
	}{Id: id, From: from, To: to})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, id, from, to)
	}
	panic(errors.New("it should not be called"))
}

func (m *TournamentInterface) SetCurrentDay(ctx context.Context, id uuid.UUID, day int) error {
	m.Calls.SetCurrentDay = append(m.Calls.SetCurrentDay, struct {
		Id  uuid.UUID
		Day int
	}{Id: id, Day: day})
	if m.Impl.SetCurrentDay != nil {
		return m.Impl.SetCurrentDay(ctx, id, day)
	}
	panic(errors.New("it should not be called"))
}

func (m *TournamentInterface) Complete(ctx context.Context, id uuid.UUID, winnerHotkey string, baselineBeaten bool) error {
	m.Calls.Complete = append(m.Calls.Complete, struct {
		Id             uuid.UUID
		WinnerHotkey   string
		BaselineBeaten bool
	}{Id: id, WinnerHotkey: winnerHotkey, BaselineBeaten: baselineBeaten})
	if m.Impl.Complete != nil {
		return m.Impl.Complete(ctx, id, winnerHotkey, baselineBeaten)
	}
	panic(errors.New("it should not be called"))
}
