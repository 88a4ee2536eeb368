package mock

import (
	"context"
	"errors"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	rdb "github.com/chainswarm/benchmark/pkg/domain/run/db"
	"github.com/google/uuid"
)

type RunInterface struct {
	Impl struct {
		Register            func(ctx context.Context, r domain.DailyRun) error
		Finish              func(ctx context.Context, r domain.DailyRun) error
		FindByTournamentDay func(ctx context.Context, tournamentId uuid.UUID, day time.Time) ([]domain.DailyRun, error)
		FindByParticipant   func(ctx context.Context, tournamentId uuid.UUID, hotkey string) ([]domain.DailyRun, error)
	}

	Calls struct {
		Register            dbmock.CallLog[domain.DailyRun]
		Finish              dbmock.CallLog[domain.DailyRun]
		FindByTournamentDay dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Day          time.Time
		}]
		FindByParticipant dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Hotkey       string
		}]
	}
}

func NewRunInterface() *RunInterface {
	return &RunInterface{}
}

var _ rdb.Interface = &RunInterface{}

func (m *RunInterface) Register(ctx context.Context, r domain.DailyRun) error {
	m.Calls.Register = append(m.Calls.Register, r)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, r)
	}
	panic(errors.New("it should not be called"))
}

func (m *RunInterface) Finish(ctx context.Context, r domain.DailyRun) error {
	m.Calls.Finish = append(m.Calls.Finish, r)
	if m.Impl.Finish != nil {
		return m.Impl.Finish(ctx, r)
	}
	panic(errors.New("it should not be called"))
}

func (m *RunInterface) FindByTournamentDay(ctx context.Context, tournamentId uuid.UUID, day time.Time) ([]domain.DailyRun, error) {
	m.Calls.FindByTournamentDay = append(m.Calls.FindByTournamentDay, struct {
		TournamentId uuid.UUID
		Day          time.Time
	}{TournamentId: tournamentId, Day: day})
	if m.Impl.FindByTournamentDay != nil {
		return m.Impl.FindByTournamentDay(ctx, tournamentId, day)
	}
	panic(errors.New("it should not be called"))
}

func (m *RunInterface) FindByParticipant(ctx context.Context, tournamentId uuid.UUID, hotkey string) ([]domain.DailyRun, error) {
	m.Calls.FindByParticipant = append(m.Calls.FindByParticipant, struct {
		TournamentId uuid.UUID
		Hotkey       string
	}{TournamentId: tournamentId, Hotkey: hotkey})
	if m.Impl.FindByParticipant != nil {
		return m.Impl.FindByParticipant(ctx, tournamentId, hotkey)
	}
	panic(errors.New("it should not be called"))
}
