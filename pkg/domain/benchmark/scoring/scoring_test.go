package scoring_test

import (
	"context"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/scoring"
	pmock "github.com/chainswarm/benchmark/pkg/domain/participant/db/mock"
	resmock "github.com/chainswarm/benchmark/pkg/domain/result/db/mock"
	rmock "github.com/chainswarm/benchmark/pkg/domain/run/db/mock"
	"github.com/google/uuid"
)

func silent() *log.Logger {
	return log.New(io.Discard, "", 0)
}

const timeLimit = time.Hour

type fixture struct {
	tournament   domain.Tournament
	participants []domain.Participant
	runs         map[string][]domain.DailyRun

	participantI *pmock.ParticipantInterface
	runI         *rmock.RunInterface
	resultI      *resmock.ResultInterface
}

func newFixture() *fixture {
	f := &fixture{
		tournament: domain.Tournament{
			Id: uuid.New(), ImageType: domain.Analytics, Status: domain.Scoring,
		},
		runs: map[string][]domain.DailyRun{},
	}

	f.participantI = pmock.NewParticipantInterface()
	f.participantI.Impl.List = func(context.Context, uuid.UUID) ([]domain.Participant, error) {
		return f.participants, nil
	}
	f.participantI.Impl.SetStatus = func(context.Context, uuid.UUID, string, domain.ParticipantStatus) error {
		return nil
	}
	f.participantI.Impl.Disqualify = func(context.Context, uuid.UUID, string, domain.DisqualificationReason, int) error {
		return nil
	}

	f.runI = rmock.NewRunInterface()
	f.runI.Impl.FindByParticipant = func(_ context.Context, _ uuid.UUID, hotkey string) ([]domain.DailyRun, error) {
		return f.runs[hotkey], nil
	}

	f.resultI = resmock.NewResultInterface()
	f.resultI.Impl.Put = func(context.Context, uuid.UUID, []domain.Result) error {
		return nil
	}

	return f
}

func (f *fixture) addParticipant(hotkey string, ptype domain.ParticipantType, order int, status domain.ParticipantStatus) {
	f.participants = append(f.participants, domain.Participant{
		TournamentId:      f.tournament.Id,
		Hotkey:            hotkey,
		Type:              ptype,
		RegistrationOrder: order,
		Status:            status,
	})
}

// cleanRuns makes n completed runs with uniform recall and duration.
func (f *fixture) cleanRuns(hotkey string, n int, recall float64, d time.Duration) {
	for i := 0; i < n; i++ {
		f.runs[hotkey] = append(f.runs[hotkey], domain.DailyRun{
			Hotkey:                hotkey,
			TestDate:              time.Date(2025, 10, 8+i, 0, 0, 0, 0, time.UTC),
			Network:               "bittensor",
			WindowDays:            7,
			Status:                domain.RunCompleted,
			Recall:                recall,
			DataCorrectnessPassed: true,
			ExecutionTime:         d,
		})
	}
}

func (f *fixture) testee() *scoring.Engine {
	return scoring.New(
		scoring.Deps{
			Participants: f.participantI,
			Runs:         f.runI,
			Results:      f.resultI,
		},
		timeLimit, silent(),
	)
}

func (f *fixture) scored(t *testing.T) map[string]domain.Result {
	t.Helper()
	if f.resultI.Calls.Put.Times() != 1 {
		t.Fatalf("Expected 1 Put, but got %d", f.resultI.Calls.Put.Times())
	}
	byHotkey := map[string]domain.Result{}
	for _, r := range f.resultI.Calls.Put[0].Results {
		byHotkey[r.Hotkey] = r
	}
	return byHotkey
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEngine_Score_ranks_and_picks_the_winner(t *testing.T) {
	f := newFixture()
	f.addParticipant("baseline_v1.0.0", domain.BaselineReference, 0, domain.Active)
	f.addParticipant("miner-a", domain.Miner, 1, domain.Active)
	f.addParticipant("miner-b", domain.Miner, 2, domain.Active)

	f.cleanRuns("baseline_v1.0.0", 7, 0.80, 20*time.Minute)
	f.cleanRuns("miner-a", 7, 0.90, 10*time.Minute) // faster and more accurate
	f.cleanRuns("miner-b", 7, 0.70, 40*time.Minute)

	if err := f.testee().Score(context.Background(), f.tournament); err != nil {
		t.Fatal(err)
	}
	results := f.scored(t)

	a := results["miner-a"]
	if a.Rank != 1 || !a.IsWinner || !a.BeatBaseline {
		t.Errorf("Expected miner-a to win at rank 1, but got %+v", a)
	}
	// twice as fast as the baseline; performance is capped at 1.0 but the
	// raw ratio is kept.
	if !closeTo(a.PerformanceScore, 1.0) || !closeTo(a.BaselineComparisonRatio, 2.0) {
		t.Errorf(
			"Expected capped performance 1.0 with ratio 2.0, but got %f and %f",
			a.PerformanceScore, a.BaselineComparisonRatio,
		)
	}
	if !closeTo(a.FinalScore, 0.5*0.90+0.3*1.0+0.2*1.0) {
		t.Errorf("Expected final score 0.95, but got %f", a.FinalScore)
	}

	b := results["miner-b"]
	if b.Rank != 3 || b.IsWinner {
		t.Errorf("Expected miner-b at rank 3, but got %+v", b)
	}
	if !closeTo(b.PerformanceScore, 0.5) {
		t.Errorf("Expected performance 0.5 for the half-speed miner, but got %f", b.PerformanceScore)
	}
	if b.MinersBeaten != 0 || results["baseline_v1.0.0"].MinersBeaten != 1 {
		t.Error("Expected the baseline to beat one miner and miner-b none")
	}
}

func TestEngine_Score_breaks_ties_by_registration_order(t *testing.T) {
	f := newFixture()
	f.addParticipant("baseline_v1.0.0", domain.BaselineReference, 0, domain.Active)
	f.addParticipant("late", domain.Miner, 2, domain.Active)
	f.addParticipant("early", domain.Miner, 1, domain.Active)

	f.cleanRuns("baseline_v1.0.0", 7, 0.80, 20*time.Minute)
	f.cleanRuns("late", 7, 0.90, 20*time.Minute)
	f.cleanRuns("early", 7, 0.90, 20*time.Minute)

	if err := f.testee().Score(context.Background(), f.tournament); err != nil {
		t.Fatal(err)
	}
	results := f.scored(t)

	if results["early"].Rank != 1 || !results["early"].IsWinner {
		t.Errorf("Expected the earlier registrant to take rank 1, but got %+v", results["early"])
	}
	if results["late"].Rank != 2 || results["late"].IsWinner {
		t.Errorf("Expected the later registrant at rank 2, but got %+v", results["late"])
	}
}

func TestEngine_Score_hard_gates_to_zero(t *testing.T) {
	f := newFixture()
	f.addParticipant("baseline_v1.0.0", domain.BaselineReference, 0, domain.Active)
	f.addParticipant("disqualified", domain.Miner, 1, domain.Disqualified)
	f.addParticipant("sloppy", domain.Miner, 2, domain.Active)
	f.addParticipant("slow", domain.Miner, 3, domain.Active)
	f.addParticipant("absent", domain.Miner, 4, domain.Active)

	f.cleanRuns("baseline_v1.0.0", 7, 0.80, 20*time.Minute)
	f.cleanRuns("disqualified", 2, 0.99, 10*time.Minute)

	// one correctness failure among otherwise clean runs gates everything.
	f.cleanRuns("sloppy", 6, 0.90, 20*time.Minute)
	f.runs["sloppy"] = append(f.runs["sloppy"], domain.DailyRun{
		Hotkey: "sloppy", Status: domain.RunCompleted,
		TestDate: time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC),
		Recall:   0.2, DataCorrectnessPassed: false, ExecutionTime: 20 * time.Minute,
	})

	// one timed out run gates everything.
	f.cleanRuns("slow", 6, 0.90, 20*time.Minute)
	f.runs["slow"] = append(f.runs["slow"], domain.DailyRun{
		Hotkey: "slow", Status: domain.RunTimeout,
		TestDate:      time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC),
		ExecutionTime: timeLimit,
	})

	if err := f.testee().Score(context.Background(), f.tournament); err != nil {
		t.Fatal(err)
	}
	results := f.scored(t)

	for _, hotkey := range []string{"disqualified", "sloppy", "slow", "absent"} {
		if r := results[hotkey]; r.FinalScore != 0 {
			t.Errorf("Expected %s to be gated to zero, but got %f", hotkey, r.FinalScore)
		}
	}
	if results["sloppy"].DataCorrectnessAllDays {
		t.Error("Expected sloppy's correctness flag to be false")
	}
	if results["slow"].AllRunsWithinTimeLimit {
		t.Error("Expected slow's time limit flag to be false")
	}

	// with every miner gated the baseline tops the ranking and nobody wins.
	if r := results["baseline_v1.0.0"]; r.Rank != 1 || r.IsWinner {
		t.Errorf("Expected the baseline at rank 1 without winning, but got %+v", r)
	}
}

func TestEngine_Score_settles_terminal_statuses(t *testing.T) {
	f := newFixture()
	f.addParticipant("baseline_v1.0.0", domain.BaselineReference, 0, domain.Active)
	f.addParticipant("miner-a", domain.Miner, 1, domain.Active)
	f.addParticipant("kicked", domain.Miner, 2, domain.Disqualified)
	f.addParticipant("absent", domain.Miner, 3, domain.Active)

	f.cleanRuns("baseline_v1.0.0", 7, 0.80, 20*time.Minute)
	f.cleanRuns("miner-a", 7, 0.90, 10*time.Minute)

	if err := f.testee().Score(context.Background(), f.tournament); err != nil {
		t.Fatal(err)
	}

	settled := map[string]domain.ParticipantStatus{}
	for _, c := range f.participantI.Calls.SetStatus {
		settled[c.Hotkey] = c.Status
	}
	if settled["miner-a"] != domain.ParticipantCompleted {
		t.Errorf("Expected miner-a completed, but got %s", settled["miner-a"])
	}
	if settled["baseline_v1.0.0"] != domain.ParticipantCompleted {
		t.Errorf("Expected the baseline completed, but got %s", settled["baseline_v1.0.0"])
	}
	if _, touched := settled["kicked"]; touched {
		t.Error("Expected the disqualified participant to be left alone")
	}

	if f.participantI.Calls.Disqualify.Times() != 1 {
		t.Fatalf("Expected 1 disqualification, but got %d", f.participantI.Calls.Disqualify.Times())
	}
	dq := f.participantI.Calls.Disqualify[0]
	if dq.Hotkey != "absent" || dq.Reason != domain.NoCompletedRuns {
		t.Errorf("Expected absent disqualified for no_completed_runs, but got %+v", dq)
	}
}
