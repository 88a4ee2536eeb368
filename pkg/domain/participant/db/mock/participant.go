package mock

import (
	"context"
	"errors"

	"github.com/chainswarm/benchmark/pkg/domain"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	"github.com/google/uuid"
)

type ParticipantInterface struct {
	Impl struct {
		Register       func(ctx context.Context, p domain.Participant) (int, error)
		AttachBaseline func(ctx context.Context, p domain.Participant) error
		Get            func(ctx context.Context, tournamentId uuid.UUID, hotkey string) (domain.Participant, error)
		List           func(ctx context.Context, tournamentId uuid.UUID) ([]domain.Participant, error)
		ActivateAll    func(ctx context.Context, tournamentId uuid.UUID) error
		SetStatus      func(ctx context.Context, tournamentId uuid.UUID, hotkey string, status domain.ParticipantStatus) error
		Disqualify     func(ctx context.Context, tournamentId uuid.UUID, hotkey string, reason domain.DisqualificationReason, day int) error
		AddStrike      func(ctx context.Context, tournamentId uuid.UUID, hotkey string) (int, error)
		Delete         func(ctx context.Context, tournamentId uuid.UUID, hotkey string) error
	}

	Calls struct {
		Register       dbmock.CallLog[domain.Participant]
		AttachBaseline dbmock.CallLog[domain.Participant]
		Get            dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Hotkey       string
		}]
		List        dbmock.CallLog[uuid.UUID]
		ActivateAll dbmock.CallLog[uuid.UUID]
		SetStatus   dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Hotkey       string
			Status       domain.ParticipantStatus
		}]
		Disqualify dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Hotkey       string
			Reason       domain.DisqualificationReason
			Day          int
		}]
		AddStrike dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Hotkey       string
		}]
		Delete dbmock.CallLog[struct {
			TournamentId uuid.UUID
			Hotkey       string
		}]
	}
}

func NewParticipantInterface() *ParticipantInterface {
	return &ParticipantInterface{}
}

var _ pdb.Interface = &ParticipantInterface{}

func (m *ParticipantInterface) Register(ctx context.Context, p domain.Participant) (int, error) {
	m.Calls.Register = append(m.Calls.Register, p)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, p)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) AttachBaseline(ctx context.Context, p domain.Participant) error {
	m.Calls.AttachBaseline = append(m.Calls.AttachBaseline, p)
	if m.Impl.AttachBaseline != nil {
		return m.Impl.AttachBaseline(ctx, p)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) Get(ctx context.Context, tournamentId uuid.UUID, hotkey string) (domain.Participant, error) {
	m.Calls.Get = append(m.Calls.Get, struct {
		TournamentId uuid.UUID
		Hotkey       string
	}{TournamentId: tournamentId, Hotkey: hotkey})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, tournamentId, hotkey)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) List(ctx context.Context, tournamentId uuid.UUID) ([]domain.Participant, error) {
	m.Calls.List = append(m.Calls.List, tournamentId)
	if m.Impl.List != nil {
		return m.Impl.List(ctx, tournamentId)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) ActivateAll(ctx context.Context, tournamentId uuid.UUID) error {
	m.Calls.ActivateAll = append(m.Calls.ActivateAll, tournamentId)
	if m.Impl.ActivateAll != nil {
		return m.Impl.ActivateAll(ctx, tournamentId)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) SetStatus(ctx context.Context, tournamentId uuid.UUID, hotkey string, status domain.ParticipantStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		TournamentId uuid.UUID
		Hotkey       string
		Status       domain.ParticipantStatus
	}{TournamentId: tournamentId, Hotkey: hotkey, Status: status})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, tournamentId, hotkey, status)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) Disqualify(ctx context.Context, tournamentId uuid.UUID, hotkey string, reason domain.DisqualificationReason, day int) error {
	m.Calls.Disqualify = append(m.Calls.Disqualify, struct {
		TournamentId uuid.UUID
		Hotkey       string
		Reason       domain.DisqualificationReason
		Day          int
	}{TournamentId: tournamentId, Hotkey: hotkey, Reason: reason, Day: day})
	if m.Impl.Disqualify != nil {
		return m.Impl.Disqualify(ctx, tournamentId, hotkey, reason, day)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) AddStrike(ctx context.Context, tournamentId uuid.UUID, hotkey string) (int, error) {
	m.Calls.AddStrike = append(m.Calls.AddStrike, struct {
		TournamentId uuid.UUID
		Hotkey       string
	}{TournamentId: tournamentId, Hotkey: hotkey})
	if m.Impl.AddStrike != nil {
		return m.Impl.AddStrike(ctx, tournamentId, hotkey)
	}
	panic(errors.New("it should not be called"))
}

func (m *ParticipantInterface) Delete(ctx context.Context, tournamentId uuid.UUID, hotkey string) error {
	m.Calls.Delete = append(m.Calls.Delete, struct {
		TournamentId uuid.UUID
		Hotkey       string
	}{TournamentId: tournamentId, Hotkey: hotkey})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, tournamentId, hotkey)
	}
	panic(errors.New("it should not be called"))
}
