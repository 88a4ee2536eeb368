package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/dataset"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/validation"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/workload"
	edb "github.com/chainswarm/benchmark/pkg/domain/epoch/db"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	rdb "github.com/chainswarm/benchmark/pkg/domain/run/db"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	"github.com/chainswarm/benchmark/pkg/utils/slices"
	"github.com/google/uuid"
)

type Deps struct {
	Tournaments  tdb.Interface
	Participants pdb.Interface
	Epochs       edb.Interface
	Runs         rdb.Interface

	Executor workload.Executor
	Datasets dataset.Source
	Gate     *validation.Gate
}

type Config struct {
	// host directory for the per-run output mounts.
	WorkDir string

	MemoryLimit int64
	TimeLimit   time.Duration
}

// Scheduler executes the run queue of one competition day: the baseline
// first, then every runnable miner in registration order, each against
// the full test matrix. Strictly one container at a time, so measured
// durations are comparable across participants.
type Scheduler struct {
	deps   Deps
	config Config
	logger *log.Logger

	// serializes whole days; overlapping triggers queue up behind it.
	mu sync.Mutex
}

func New(deps Deps, config Config, logger *log.Logger) *Scheduler {
	return &Scheduler{deps: deps, config: config, logger: logger}
}

// RunDay executes all queued units of the given competition day.
//
// Execution is at-most-once per (participant, network, window): units
// whose run record already exists are skipped, so a crashed day can be
// retried without re-running what was measured already.
//
// Cancellation of the tournament is honored between units, never inside
// one.
func (s *Scheduler) RunDay(ctx context.Context, t domain.Tournament, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.InCompetitionWindow(day) {
		return fmt.Errorf(
			"%w: %s is not a competition day of tournament %s",
			domerr.ErrPhaseViolation, domain.Date(day).Format(time.DateOnly), t.Id,
		)
	}

	epoch, err := s.deps.Epochs.GetByTournament(ctx, t.Id)
	if err != nil {
		return err
	}

	all, err := s.deps.Participants.List(ctx, t.Id)
	if err != nil {
		return err
	}
	queue := slices.Filter(all, func(p domain.Participant) bool {
		return p.Status.Runnable()
	})

	dayNo := t.DayNumber(day)
	s.logger.Printf(
		"tournament %s day %d: %d participants x %d networks x %d windows",
		t.Id, dayNo, len(queue), len(t.Matrix.Networks), len(t.Matrix.WindowDays),
	)

	runOrder := 0
	for _, p := range queue {
		disqualified := false

		err := t.Matrix.Each(func(network string, windowDays int) error {
			runOrder++
			if disqualified {
				return nil
			}

			// a cancel must stop the queue between units.
			fresh, err := s.deps.Tournaments.Get(ctx, t.Id)
			if err != nil {
				return err
			}
			if fresh.Status == domain.Cancelled {
				return errCancelled
			}

			return s.runUnit(ctx, t, epoch, p, unit{
				Day:        day,
				DayNo:      dayNo,
				Network:    network,
				WindowDays: windowDays,
				RunOrder:   runOrder,
			}, &disqualified)
		})
		if errors.Is(err, errCancelled) {
			s.logger.Printf("tournament %s cancelled; day %d stopped", t.Id, dayNo)
			return nil
		}
		if err != nil {
			return err
		}
	}

	return nil
}

var errCancelled = errors.New("tournament cancelled")

type unit struct {
	Day        time.Time
	DayNo      int
	Network    string
	WindowDays int
	RunOrder   int
}

func (s *Scheduler) runUnit(
	ctx context.Context,
	t domain.Tournament,
	epoch domain.Epoch,
	p domain.Participant,
	u unit,
	disqualified *bool,
) error {
	run := domain.DailyRun{
		Id:              uuid.New(),
		EpochId:         epoch.Id,
		TournamentId:    t.Id,
		Hotkey:          p.Hotkey,
		ParticipantType: p.Type,
		RunOrder:        u.RunOrder,
		TestDate:        domain.Date(u.Day),
		Network:         u.Network,
		WindowDays:      u.WindowDays,
		Status:          domain.RunRunning,
	}
	if err := s.deps.Runs.Register(ctx, run); err != nil {
		if errors.Is(err, domerr.ErrAlreadyRegistered) {
			return nil // already measured (or being measured) earlier
		}
		return err
	}

	datasetPath, err := s.deps.Datasets.Prepare(ctx, u.Network, u.Day, u.WindowDays)
	if err != nil {
		if errors.Is(err, domerr.ErrMissing) {
			run.Status = domain.RunFailed
			run.ErrorMessage = err.Error()
			return s.deps.Runs.Finish(ctx, run)
		}
		return err
	}

	outputPath := filepath.Join(
		s.config.WorkDir, t.Id.String(),
		fmt.Sprintf("day%02d", u.DayNo),
		p.Hotkey,
		fmt.Sprintf("%s_%dd", u.Network, u.WindowDays),
	)
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return err
	}

	outcome, err := s.deps.Executor.Run(ctx, workload.Spec{
		ImageRef:     p.ImageRef,
		DatasetPath:  datasetPath,
		OutputPath:   outputPath,
		DatabaseName: p.DatabaseName,
		Network:      u.Network,
		TestDate:     u.Day,
		WindowDays:   u.WindowDays,
		MemoryLimit:  s.config.MemoryLimit,
		TimeLimit:    s.config.TimeLimit,
	})
	if err != nil {
		// infrastructure trouble. Close the record and surface the error;
		// the day can be retried once the infrastructure recovers.
		run.Status = domain.RunFailed
		run.ErrorMessage = err.Error()
		if ferr := s.deps.Runs.Finish(ctx, run); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}

	run.ExecutionTime = outcome.Duration
	run.ExitCode = outcome.ExitCode
	run.ErrorMessage = outcome.Message

	if outcome.TimedOut {
		run.Status = domain.RunTimeout
		s.logger.Printf(
			"%s timed out on %s (%dd) after %s",
			p.Hotkey, u.Network, u.WindowDays, outcome.Duration,
		)
		return s.deps.Runs.Finish(ctx, run)
	}
	if outcome.ExitCode != 0 {
		run.Status = domain.RunFailed
		s.logger.Printf(
			"%s exited %d on %s (%dd)",
			p.Hotkey, outcome.ExitCode, u.Network, u.WindowDays,
		)
		return s.deps.Runs.Finish(ctx, run)
	}

	verdict, err := s.deps.Gate.Inspect(ctx, validation.Subject{
		Participant:   p,
		Network:       u.Network,
		TestDate:      u.Day,
		WindowDays:    u.WindowDays,
		Day:           u.DayNo,
		ExecutionTime: outcome.Duration,
	}, outcome.Report)
	if err != nil {
		return err
	}

	run.PatternsExpected = verdict.Audit.PatternsExpected
	run.PatternsFound = verdict.Audit.PatternsFound
	run.Recall = verdict.Audit.Recall
	run.AllAddressesExist = verdict.AllAddressesExist
	run.AllConnectionsExist = verdict.AllConnectionsExist
	run.DataCorrectnessPassed = verdict.Audit.CorrectnessPassed &&
		verdict.AllAddressesExist && verdict.AllConnectionsExist

	switch verdict.Kind {
	case validation.Pass, validation.Strike:
		run.Status = domain.RunCompleted
	case validation.Overtime:
		run.Status = domain.RunTimeout
	case validation.Disqualify:
		run.Status = domain.RunCompleted
		run.Disqualified = true
		run.DisqualificationReason = verdict.Reason
		*disqualified = true
	}

	return s.deps.Runs.Finish(ctx, run)
}
