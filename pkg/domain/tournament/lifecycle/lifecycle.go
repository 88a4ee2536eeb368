package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	bdb "github.com/chainswarm/benchmark/pkg/domain/baseline/db"
	"github.com/chainswarm/benchmark/pkg/domain"
	edb "github.com/chainswarm/benchmark/pkg/domain/epoch/db"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	resdb "github.com/chainswarm/benchmark/pkg/domain/result/db"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	"github.com/google/uuid"
)

// Transition is one edge of the tournament state machine.
type Transition struct {
	From, To domain.TournamentStatus
	Reason   string
}

// Snapshot is everything a transition guard is allowed to look at.
// Guards are pure; all reads happen before the guard is evaluated.
type Snapshot struct {
	Tournament domain.Tournament

	// a persisted result set with a rank-1 entry exists.
	HasRankedResults bool
}

// NextTransition evaluates the guards of the snapshot's current status
// against asOf. At most one transition is due at a time; it returns false
// when none is.
func NextTransition(s Snapshot, asOf time.Time) (Transition, bool) {
	t := s.Tournament
	today := domain.Date(asOf)

	switch t.Status {
	case domain.Draft:
		if !today.Before(domain.Date(t.RegistrationStart)) {
			return Transition{
				From:   domain.Draft,
				To:     domain.Registration,
				Reason: "registration window is open",
			}, true
		}
	case domain.Registration:
		if today.After(domain.Date(t.RegistrationEnd)) {
			return Transition{
				From:   domain.Registration,
				To:     domain.InProgress,
				Reason: "registration window is over",
			}, true
		}
	case domain.InProgress:
		if today.After(domain.Date(t.CompetitionEnd)) {
			return Transition{
				From:   domain.InProgress,
				To:     domain.Scoring,
				Reason: "all competition days are over",
			}, true
		}
	case domain.Scoring:
		if s.HasRankedResults {
			return Transition{
				From:   domain.Scoring,
				To:     domain.Completed,
				Reason: "final ranking is persisted",
			}, true
		}
	case domain.Completed, domain.Cancelled:
		// terminal
	}

	return Transition{}, false
}

// DayRunner executes the full run queue of one competition day.
type DayRunner interface {
	RunDay(ctx context.Context, t domain.Tournament, day time.Time) error
}

// Scorer computes and persists the final ranking of a tournament.
type Scorer interface {
	Score(ctx context.Context, t domain.Tournament) error
}

// Promoter runs the baseline promotion workflow after a completed
// tournament whose winner beat the baseline.
type Promoter interface {
	Promote(ctx context.Context, t domain.Tournament, winnerHotkey string) error
}

type Deps struct {
	Tournaments  tdb.Interface
	Participants pdb.Interface
	Epochs       edb.Interface
	Results      resdb.Interface
	Baselines    bdb.Interface

	DayRunner DayRunner
	Scorer    Scorer
	Promoter  Promoter
}

// Orchestrator drives tournaments along the state machine. Each Advance
// applies at most one transition, so progress is made in small idempotent
// steps and a crashed invocation can simply be retried.
type Orchestrator struct {
	deps   Deps
	logger *log.Logger
}

func New(deps Deps, logger *log.Logger) *Orchestrator {
	return &Orchestrator{deps: deps, logger: logger}
}

// Progress tells what an Advance invocation did.
type Progress struct {
	// the transition that was due. Zero when none was.
	Transition Transition

	// the transition (or day trigger) was actually applied. Always false
	// in dry-run mode.
	Applied bool

	DryRun bool

	// 1-origin day number for which a day execution was triggered.
	// 0 when none was.
	DayTriggered int

	// scoring was (re-)triggered.
	ScoringTriggered bool
}

// CreateSpec is the operator's request for a new tournament.
type CreateSpec struct {
	Name              string
	ImageType         domain.ImageType
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	CompetitionStart  time.Time
	MaxParticipants   int
	EpochDays         int
	Matrix            domain.TestMatrix
}

// Create makes a new draft tournament and attaches the currently active
// baseline of its image type as the order-0 entrant.
func (o *Orchestrator) Create(ctx context.Context, spec CreateSpec) (domain.Tournament, error) {
	baseline, err := o.deps.Baselines.Active(ctx, spec.ImageType)
	if err != nil {
		return domain.Tournament{}, fmt.Errorf(
			"no active %s baseline to benchmark against: %w", spec.ImageType, err,
		)
	}

	t := domain.Tournament{
		Id:                uuid.New(),
		Name:              spec.Name,
		ImageType:         spec.ImageType,
		RegistrationStart: domain.Date(spec.RegistrationStart),
		RegistrationEnd:   domain.Date(spec.RegistrationEnd),
		CompetitionStart:  domain.Date(spec.CompetitionStart),
		CompetitionEnd:    domain.Date(spec.CompetitionStart).AddDate(0, 0, spec.EpochDays-1),
		MaxParticipants:   spec.MaxParticipants,
		EpochDays:         spec.EpochDays,
		Matrix:            spec.Matrix,
		BaselineId:        baseline.Id,
		Status:            domain.Draft,
	}
	if err := t.Validate(); err != nil {
		return domain.Tournament{}, err
	}

	if err := o.deps.Tournaments.Register(ctx, t); err != nil {
		return domain.Tournament{}, err
	}

	if err := o.deps.Participants.AttachBaseline(ctx, domain.Participant{
		TournamentId: t.Id,
		Hotkey:       baseline.ParticipantHotkey(),
		Type:         domain.BaselineReference,
		Repository:   baseline.Repository,
		ImageRef:     baseline.ImageRef,
		DatabaseName: fmt.Sprintf("benchmark_%s_baseline", t.Id),
		BaselineId:   &baseline.Id,
		Status:       domain.Registered,
	}); err != nil {
		return domain.Tournament{}, err
	}

	o.logger.Printf(
		"tournament %s (%s) created: %s .. %s against baseline %s",
		t.Id, t.Name,
		domain.Date(t.CompetitionStart).Format(time.DateOnly),
		domain.Date(t.CompetitionEnd).Format(time.DateOnly),
		baseline.Version,
	)
	return t, nil
}

// Advance moves a tournament one step forward as of the given time:
// it applies the single due transition if any, or triggers the day
// execution / scoring work owed by the current status.
//
// In dry-run mode the due transition is reported but nothing is written.
func (o *Orchestrator) Advance(ctx context.Context, tournamentId uuid.UUID, asOf time.Time, dryRun bool) (Progress, error) {
	t, err := o.deps.Tournaments.Get(ctx, tournamentId)
	if err != nil {
		return Progress{}, err
	}

	snapshot := Snapshot{Tournament: t}
	if t.Status == domain.Scoring {
		results, err := o.deps.Results.List(ctx, tournamentId)
		if err != nil {
			return Progress{}, err
		}
		snapshot.HasRankedResults = len(results) > 0 && results[0].Rank == 1
	}

	tr, due := NextTransition(snapshot, asOf)
	if !due {
		return o.advanceInStatus(ctx, t, asOf, dryRun)
	}
	if dryRun {
		return Progress{Transition: tr, DryRun: true}, nil
	}

	switch tr.To {
	case domain.InProgress:
		// side effects go first and are idempotent, so a crash between
		// them and the status write only costs a retry.
		if err := o.ensureEpoch(ctx, t); err != nil {
			return Progress{}, err
		}
		if err := o.deps.Participants.ActivateAll(ctx, t.Id); err != nil {
			return Progress{}, err
		}
		if err := o.deps.Tournaments.SetCurrentDay(ctx, t.Id, 1); err != nil {
			return Progress{}, err
		}
	case domain.Completed:
		return o.complete(ctx, t, tr)
	}

	if err := o.deps.Tournaments.SetStatus(ctx, t.Id, tr.From, tr.To); err != nil {
		return Progress{}, err
	}
	o.logger.Printf("tournament %s: %s -> %s (%s)", t.Id, tr.From, tr.To, tr.Reason)

	if tr.To == domain.Scoring {
		if epoch, err := o.deps.Epochs.GetByTournament(ctx, t.Id); err == nil {
			if err := o.deps.Epochs.SetStatus(ctx, epoch.Id, domain.EpochCompleted); err != nil {
				return Progress{}, err
			}
		} else if !errors.Is(err, domerr.ErrMissing) {
			return Progress{}, err
		}

		t.Status = domain.Scoring
		if err := o.deps.Scorer.Score(ctx, t); err != nil {
			return Progress{}, err
		}
		return Progress{Transition: tr, Applied: true, ScoringTriggered: true}, nil
	}

	return Progress{Transition: tr, Applied: true}, nil
}

// advanceInStatus does the work a status owes while no transition is due:
// execute today's runs while in progress, or retrigger scoring when a
// previous scoring attempt left no ranking behind.
func (o *Orchestrator) advanceInStatus(ctx context.Context, t domain.Tournament, asOf time.Time, dryRun bool) (Progress, error) {
	switch t.Status {
	case domain.InProgress:
		if !t.InCompetitionWindow(asOf) {
			return Progress{}, nil
		}
		day := t.DayNumber(asOf)
		if dryRun {
			return Progress{DryRun: true, DayTriggered: day}, nil
		}
		if err := o.deps.Tournaments.SetCurrentDay(ctx, t.Id, day); err != nil {
			return Progress{}, err
		}
		if err := o.deps.DayRunner.RunDay(ctx, t, domain.Date(asOf)); err != nil {
			return Progress{}, err
		}
		return Progress{Applied: true, DayTriggered: day}, nil

	case domain.Scoring:
		if dryRun {
			return Progress{DryRun: true, ScoringTriggered: true}, nil
		}
		if err := o.deps.Scorer.Score(ctx, t); err != nil {
			return Progress{}, err
		}
		return Progress{Applied: true, ScoringTriggered: true}, nil
	}

	return Progress{}, nil
}

func (o *Orchestrator) ensureEpoch(ctx context.Context, t domain.Tournament) error {
	_, err := o.deps.Epochs.GetByTournament(ctx, t.Id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domerr.ErrMissing) {
		return err
	}

	epoch := domain.Epoch{
		Id:           uuid.New(),
		TournamentId: t.Id,
		ImageType:    t.ImageType,
		StartDate:    domain.Date(t.CompetitionStart),
		EndDate:      domain.Date(t.CompetitionEnd),
		Status:       domain.EpochRunning,
	}
	return o.deps.Epochs.Register(ctx, epoch)
}

func (o *Orchestrator) complete(ctx context.Context, t domain.Tournament, tr Transition) (Progress, error) {
	results, err := o.deps.Results.List(ctx, t.Id)
	if err != nil {
		return Progress{}, err
	}
	if len(results) == 0 {
		return Progress{}, fmt.Errorf(
			"%w: tournament %s has no ranking to complete with",
			domerr.ErrInvalidTransition, t.Id,
		)
	}

	first := results[0]
	winnerHotkey := ""
	baselineBeaten := false
	if first.IsWinner {
		winnerHotkey = first.Hotkey
		baselineBeaten = first.BeatBaseline
	}

	if err := o.deps.Tournaments.Complete(ctx, t.Id, winnerHotkey, baselineBeaten); err != nil {
		return Progress{}, err
	}
	o.logger.Printf("tournament %s: %s -> %s (%s)", t.Id, tr.From, tr.To, tr.Reason)

	if winnerHotkey != "" && baselineBeaten {
		if err := o.deps.Promoter.Promote(ctx, t, winnerHotkey); err != nil {
			return Progress{}, err
		}
	} else {
		o.logger.Printf(
			"tournament %s: no promotion (winner=%q, baseline beaten=%v)",
			t.Id, winnerHotkey, baselineBeaten,
		)
	}

	return Progress{Transition: tr, Applied: true}, nil
}

// Cancel aborts a tournament from any non-terminal status.
func (o *Orchestrator) Cancel(ctx context.Context, tournamentId uuid.UUID) error {
	t, err := o.deps.Tournaments.Get(ctx, tournamentId)
	if err != nil {
		return err
	}
	if t.Status.Terminal() {
		return fmt.Errorf(
			"%w: tournament %s is already %s",
			domerr.ErrInvalidTransition, t.Id, t.Status,
		)
	}

	if err := o.deps.Tournaments.SetStatus(ctx, t.Id, t.Status, domain.Cancelled); err != nil {
		return err
	}
	o.logger.Printf("tournament %s: %s -> %s (cancelled by operator)", t.Id, t.Status, domain.Cancelled)

	if epoch, err := o.deps.Epochs.GetByTournament(ctx, tournamentId); err == nil {
		if epoch.Status == domain.EpochRunning || epoch.Status == domain.EpochPending {
			return o.deps.Epochs.SetStatus(ctx, epoch.Id, domain.EpochFailed)
		}
	} else if !errors.Is(err, domerr.ErrMissing) {
		return err
	}
	return nil
}
