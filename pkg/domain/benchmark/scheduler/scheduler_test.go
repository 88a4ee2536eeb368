package scheduler_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/scheduler"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/validation"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/workload"
	emock "github.com/chainswarm/benchmark/pkg/domain/epoch/db/mock"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pmock "github.com/chainswarm/benchmark/pkg/domain/participant/db/mock"
	rmock "github.com/chainswarm/benchmark/pkg/domain/run/db/mock"
	tmock "github.com/chainswarm/benchmark/pkg/domain/tournament/db/mock"
	"github.com/chainswarm/benchmark/pkg/utils/cmp"
	"github.com/google/uuid"
)

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func silent() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeExecutor struct {
	executed []string // "<hotkey>/<network>/<window>"
	outcome  func(spec workload.Spec) workload.Outcome
}

func (f *fakeExecutor) Run(ctx context.Context, spec workload.Spec) (workload.Outcome, error) {
	f.executed = append(f.executed, fmt.Sprintf(
		"%s/%s/%d", spec.DatabaseName, spec.Network, spec.WindowDays,
	))
	if f.outcome != nil {
		return f.outcome(spec), nil
	}
	return workload.Outcome{ExitCode: 0, Duration: 5 * time.Minute, HasReport: true}, nil
}

type fakeDatasets struct{}

func (fakeDatasets) Prepare(ctx context.Context, network string, testDate time.Time, windowDays int) (string, error) {
	return "/var/lib/benchmark/datasets/" + network, nil
}

type fakeOracle struct {
	fabricated string // address that the pipeline does not know
}

func (f *fakeOracle) MissingAddresses(_ context.Context, _ string, addrs []string) ([]string, error) {
	missing := []string{}
	for _, a := range addrs {
		if a == f.fabricated {
			missing = append(missing, a)
		}
	}
	return missing, nil
}

func (f *fakeOracle) MissingConnections(context.Context, string, []domain.Connection) ([]domain.Connection, error) {
	return nil, nil
}

type fakeAuditor struct{}

func (fakeAuditor) Audit(context.Context, string, time.Time, int, domain.RunReport) (domain.Audit, error) {
	return domain.Audit{PatternsExpected: 2, PatternsFound: 2, Recall: 1.0, CorrectnessPassed: true}, nil
}

type fixture struct {
	tournament   domain.Tournament
	epoch        domain.Epoch
	participants []domain.Participant

	tournaments  *tmock.TournamentInterface
	participantI *pmock.ParticipantInterface
	epochs       *emock.EpochInterface
	runs         *rmock.RunInterface
	executor     *fakeExecutor
}

func newFixture() *fixture {
	tournamentId := uuid.New()
	f := &fixture{
		tournament: domain.Tournament{
			Id:               tournamentId,
			ImageType:        domain.Analytics,
			CompetitionStart: date("2025-10-08"),
			CompetitionEnd:   date("2025-10-14"),
			EpochDays:        7,
			Status:           domain.InProgress,
			Matrix: domain.TestMatrix{
				Networks:   []string{"bittensor", "ethereum"},
				WindowDays: []int{7, 30},
			},
		},
		epoch: domain.Epoch{
			Id: uuid.New(), TournamentId: tournamentId, Status: domain.EpochRunning,
		},
	}

	f.participants = []domain.Participant{
		{TournamentId: tournamentId, Hotkey: "baseline_v1.0.0", Type: domain.BaselineReference, RegistrationOrder: 0, DatabaseName: "baseline", Status: domain.Active},
		{TournamentId: tournamentId, Hotkey: "miner-a", Type: domain.Miner, RegistrationOrder: 1, DatabaseName: "miner-a", Status: domain.Active},
		{TournamentId: tournamentId, Hotkey: "miner-b", Type: domain.Miner, RegistrationOrder: 2, DatabaseName: "miner-b", Status: domain.Active},
	}

	f.tournaments = tmock.NewTournamentInterface()
	f.tournaments.Impl.Get = func(context.Context, uuid.UUID) (domain.Tournament, error) {
		return f.tournament, nil
	}

	f.participantI = pmock.NewParticipantInterface()
	f.participantI.Impl.List = func(context.Context, uuid.UUID) ([]domain.Participant, error) {
		return f.participants, nil
	}
	f.participantI.Impl.Disqualify = func(context.Context, uuid.UUID, string, domain.DisqualificationReason, int) error {
		return nil
	}

	f.epochs = emock.NewEpochInterface()
	f.epochs.Impl.GetByTournament = func(context.Context, uuid.UUID) (domain.Epoch, error) {
		return f.epoch, nil
	}

	f.runs = rmock.NewRunInterface()
	f.runs.Impl.Register = func(context.Context, domain.DailyRun) error { return nil }
	f.runs.Impl.Finish = func(context.Context, domain.DailyRun) error { return nil }

	f.executor = &fakeExecutor{}
	return f
}

func (f *fixture) testee(t *testing.T, oracle validation.Oracle) *scheduler.Scheduler {
	gate := validation.New(
		oracle, fakeAuditor{}, f.participantI, 3, time.Hour, silent(),
	)
	return scheduler.New(
		scheduler.Deps{
			Tournaments:  f.tournaments,
			Participants: f.participantI,
			Epochs:       f.epochs,
			Runs:         f.runs,
			Executor:     f.executor,
			Datasets:     fakeDatasets{},
			Gate:         gate,
		},
		scheduler.Config{
			WorkDir:     t.TempDir(),
			MemoryLimit: 8 << 30,
			TimeLimit:   time.Hour,
		},
		silent(),
	)
}

func TestScheduler_RunDay_executes_queue_in_order(t *testing.T) {
	f := newFixture()
	testee := f.testee(t, &fakeOracle{})

	if err := testee.RunDay(context.Background(), f.tournament, date("2025-10-10")); err != nil {
		t.Fatal(err)
	}

	want := []string{}
	for _, who := range []string{"baseline", "miner-a", "miner-b"} {
		for _, network := range []string{"bittensor", "ethereum"} {
			for _, window := range []int{7, 30} {
				want = append(want, fmt.Sprintf("%s/%s/%d", who, network, window))
			}
		}
	}
	if !cmp.SliceEq(f.executor.executed, want) {
		t.Errorf("Expected execution order %v, but got %v", want, f.executor.executed)
	}

	if got := f.runs.Calls.Finish.Times(); got != 12 {
		t.Fatalf("Expected 12 finished runs, but got %d", got)
	}
	for _, r := range f.runs.Calls.Finish {
		if r.Status != domain.RunCompleted {
			t.Errorf("Expected run %s/%s to complete, but got %s", r.Hotkey, r.Network, r.Status)
		}
		if !r.DataCorrectnessPassed {
			t.Errorf("Expected run %s/%s to pass correctness", r.Hotkey, r.Network)
		}
	}
}

func TestScheduler_RunDay_skips_rest_of_disqualified_participant(t *testing.T) {
	f := newFixture()

	// miner-a reports an address the pipeline has never seen.
	f.executor.outcome = func(spec workload.Spec) workload.Outcome {
		out := workload.Outcome{ExitCode: 0, Duration: 5 * time.Minute, HasReport: true}
		if spec.DatabaseName == "miner-a" {
			out.Report = domain.RunReport{Addresses: []string{"5Fabricated"}}
		}
		return out
	}

	testee := f.testee(t, &fakeOracle{fabricated: "5Fabricated"})
	if err := testee.RunDay(context.Background(), f.tournament, date("2025-10-10")); err != nil {
		t.Fatal(err)
	}

	// 4 baseline units, 1 unit for miner-a (first, disqualifying), 4 for miner-b.
	if got := len(f.executor.executed); got != 9 {
		t.Errorf("Expected 9 executions, but got %d: %v", got, f.executor.executed)
	}
	if f.participantI.Calls.Disqualify.Times() != 1 {
		t.Fatalf("Expected 1 disqualification, but got %d", f.participantI.Calls.Disqualify.Times())
	}
	dq := f.participantI.Calls.Disqualify[0]
	if dq.Hotkey != "miner-a" || dq.Reason != domain.FabricatedAddress || dq.Day != 3 {
		t.Errorf("Expected miner-a disqualified for fabricated_address on day 3, but got %+v", dq)
	}

	marked := 0
	for _, r := range f.runs.Calls.Finish {
		if r.Hotkey == "miner-a" && r.Disqualified {
			marked++
			if r.DisqualificationReason != domain.FabricatedAddress {
				t.Errorf("Expected the run to carry the reason, but got %q", r.DisqualificationReason)
			}
		}
	}
	if marked != 1 {
		t.Errorf("Expected exactly 1 disqualified run record, but got %d", marked)
	}
}

func TestScheduler_RunDay_stops_between_units_on_cancel(t *testing.T) {
	f := newFixture()

	gets := 0
	f.tournaments.Impl.Get = func(context.Context, uuid.UUID) (domain.Tournament, error) {
		gets++
		tt := f.tournament
		if gets > 2 {
			tt.Status = domain.Cancelled
		}
		return tt, nil
	}

	testee := f.testee(t, &fakeOracle{})
	if err := testee.RunDay(context.Background(), f.tournament, date("2025-10-10")); err != nil {
		t.Fatal(err)
	}

	if got := len(f.executor.executed); got != 2 {
		t.Errorf("Expected execution to stop after 2 units, but got %d", got)
	}
}

func TestScheduler_RunDay_skips_already_recorded_units(t *testing.T) {
	f := newFixture()

	f.runs.Impl.Register = func(_ context.Context, r domain.DailyRun) error {
		if r.Hotkey == "baseline_v1.0.0" {
			return fmt.Errorf("%w: recorded on an earlier attempt", domerr.ErrAlreadyRegistered)
		}
		return nil
	}

	testee := f.testee(t, &fakeOracle{})
	if err := testee.RunDay(context.Background(), f.tournament, date("2025-10-10")); err != nil {
		t.Fatal(err)
	}

	for _, e := range f.executor.executed {
		if strings.HasPrefix(e, "baseline/") {
			t.Errorf("Expected baseline units to be skipped, but %s was executed", e)
		}
	}
	if got := len(f.executor.executed); got != 8 {
		t.Errorf("Expected 8 executions, but got %d", got)
	}
}

func TestScheduler_RunDay_records_timeouts_and_failures(t *testing.T) {
	f := newFixture()

	f.executor.outcome = func(spec workload.Spec) workload.Outcome {
		switch spec.DatabaseName {
		case "miner-a":
			return workload.Outcome{TimedOut: true, ExitCode: -1, Duration: time.Hour}
		case "miner-b":
			return workload.Outcome{ExitCode: 2, Duration: time.Minute, Message: "panic"}
		}
		return workload.Outcome{ExitCode: 0, Duration: 5 * time.Minute, HasReport: true}
	}

	testee := f.testee(t, &fakeOracle{})
	if err := testee.RunDay(context.Background(), f.tournament, date("2025-10-10")); err != nil {
		t.Fatal(err)
	}

	statuses := map[string]map[domain.RunStatus]int{}
	for _, r := range f.runs.Calls.Finish {
		if statuses[r.Hotkey] == nil {
			statuses[r.Hotkey] = map[domain.RunStatus]int{}
		}
		statuses[r.Hotkey][r.Status]++
	}

	if got := statuses["miner-a"][domain.RunTimeout]; got != 4 {
		t.Errorf("Expected 4 timeout runs for miner-a, but got %d", got)
	}
	if got := statuses["miner-b"][domain.RunFailed]; got != 4 {
		t.Errorf("Expected 4 failed runs for miner-b, but got %d", got)
	}
	if got := statuses["baseline_v1.0.0"][domain.RunCompleted]; got != 4 {
		t.Errorf("Expected 4 completed baseline runs, but got %d", got)
	}
}

func TestScheduler_RunDay_rejects_out_of_window_days(t *testing.T) {
	f := newFixture()
	testee := f.testee(t, &fakeOracle{})

	err := testee.RunDay(context.Background(), f.tournament, date("2025-10-20"))
	if err == nil {
		t.Fatal("Expected an error for a day outside the window")
	}
}
