package promotion_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	bmock "github.com/chainswarm/benchmark/pkg/domain/baseline/db/mock"
	"github.com/chainswarm/benchmark/pkg/domain/baseline/promotion"
	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pmock "github.com/chainswarm/benchmark/pkg/domain/participant/db/mock"
	tmock "github.com/chainswarm/benchmark/pkg/domain/tournament/db/mock"
	"github.com/google/uuid"
)

func silent() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type fakeForge struct {
	forked []promotion.ForkRequest
	err    error
}

func (f *fakeForge) Fork(_ context.Context, req promotion.ForkRequest) (promotion.Fork, error) {
	f.forked = append(f.forked, req)
	if f.err != nil {
		return promotion.Fork{}, f.err
	}
	return promotion.Fork{
		Repository: "github.com/chainswarm/baseline-" + string(req.ImageType),
		CommitHash: "deadbeef",
	}, nil
}

type fakeBuilder struct {
	built []string // image refs
	err   error
}

func (f *fakeBuilder) Build(_ context.Context, _, _, imageRef string) error {
	f.built = append(f.built, imageRef)
	return f.err
}

type fixture struct {
	tournament domain.Tournament
	winner     domain.Participant
	active     domain.Baseline

	tournaments  *tmock.TournamentInterface
	participantI *pmock.ParticipantInterface
	baselines    *bmock.BaselineInterface
	forge        *fakeForge
	builder      *fakeBuilder
}

func newFixture() *fixture {
	tournamentId := uuid.New()
	f := &fixture{
		tournament: domain.Tournament{
			Id:             tournamentId,
			ImageType:      domain.Analytics,
			Status:         domain.Completed,
			WinnerHotkey:   "miner-a",
			BaselineBeaten: true,
		},
		winner: domain.Participant{
			TournamentId: tournamentId,
			Hotkey:       "miner-a",
			Type:         domain.Miner,
			Repository:   "github.com/miner-a/analytics",
		},
		active: domain.Baseline{
			Id: uuid.New(), ImageType: domain.Analytics,
			Version: "v1.2.0", Status: domain.BaselineActive,
		},
	}

	f.tournaments = tmock.NewTournamentInterface()
	f.tournaments.Impl.Get = func(context.Context, uuid.UUID) (domain.Tournament, error) {
		return f.tournament, nil
	}

	f.participantI = pmock.NewParticipantInterface()
	f.participantI.Impl.Get = func(context.Context, uuid.UUID, string) (domain.Participant, error) {
		return f.winner, nil
	}

	f.baselines = bmock.NewBaselineInterface()
	f.baselines.Impl.ByOriginTournament = func(context.Context, uuid.UUID) ([]domain.Baseline, error) {
		return nil, nil
	}
	f.baselines.Impl.Active = func(context.Context, domain.ImageType) (domain.Baseline, error) {
		return f.active, nil
	}
	f.baselines.Impl.Register = func(context.Context, domain.Baseline) error { return nil }
	f.baselines.Impl.Promote = func(context.Context, uuid.UUID, uuid.UUID) error { return nil }
	f.baselines.Impl.SetStatus = func(context.Context, uuid.UUID, domain.BaselineStatus) error { return nil }

	f.forge = &fakeForge{}
	f.builder = &fakeBuilder{}
	return f
}

func (f *fixture) testee() *promotion.Workflow {
	return promotion.New(
		promotion.Deps{
			Baselines:    f.baselines,
			Participants: f.participantI,
			Tournaments:  f.tournaments,
			Forge:        f.forge,
			Builder:      f.builder,
		},
		promotion.Config{ImageRegistry: "ghcr.io/chainswarm"},
		silent(),
	)
}

func TestWorkflow_Promote_forks_builds_and_activates(t *testing.T) {
	f := newFixture()

	if err := f.testee().Promote(context.Background(), f.tournament, "miner-a"); err != nil {
		t.Fatal(err)
	}

	if len(f.forge.forked) != 1 {
		t.Fatalf("Expected 1 fork, but got %d", len(f.forge.forked))
	}
	fork := f.forge.forked[0]
	if fork.SourceRepository != "github.com/miner-a/analytics" || fork.Version != "v1.3.0" {
		t.Errorf("Expected a fork of the winner's repository at v1.3.0, but got %+v", fork)
	}

	if f.baselines.Calls.Register.Times() != 1 {
		t.Fatalf("Expected 1 registered baseline, but got %d", f.baselines.Calls.Register.Times())
	}
	registered := f.baselines.Calls.Register[0]
	if registered.Status != domain.BaselineBuilding {
		t.Errorf("Expected the new baseline to start out building, but got %s", registered.Status)
	}
	if registered.Version != "v1.3.0" || registered.OriginHotkey != "miner-a" {
		t.Errorf("Expected v1.3.0 originating from miner-a, but got %+v", registered)
	}
	if registered.OriginTournamentId == nil || *registered.OriginTournamentId != f.tournament.Id {
		t.Error("Expected the origin tournament to be recorded")
	}
	if registered.ImageRef != "ghcr.io/chainswarm/baseline-analytics:v1.3.0" {
		t.Errorf("Unexpected image reference: %s", registered.ImageRef)
	}

	if len(f.builder.built) != 1 || f.builder.built[0] != registered.ImageRef {
		t.Errorf("Expected the registered image to be built, but got %v", f.builder.built)
	}

	if f.baselines.Calls.Promote.Times() != 1 {
		t.Fatalf("Expected 1 promotion, but got %d", f.baselines.Calls.Promote.Times())
	}
	flip := f.baselines.Calls.Promote[0]
	if flip.NewId != registered.Id || flip.OldId != f.active.Id {
		t.Errorf("Expected the new baseline to supersede v1.2.0, but got %+v", flip)
	}
}

func TestWorkflow_Promote_skips_when_nothing_won(t *testing.T) {
	for name, mutate := range map[string]func(f *fixture) string{
		"no winner": func(f *fixture) string {
			f.tournament.WinnerHotkey = ""
			return ""
		},
		"baseline not beaten": func(f *fixture) string {
			f.tournament.BaselineBeaten = false
			return "miner-a"
		},
		"baseline itself won": func(f *fixture) string {
			f.winner = domain.Participant{
				TournamentId: f.tournament.Id,
				Hotkey:       "baseline_v1.2.0",
				Type:         domain.BaselineReference,
			}
			return "baseline_v1.2.0"
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			winner := mutate(f)

			if err := f.testee().Promote(context.Background(), f.tournament, winner); err != nil {
				t.Fatal(err)
			}
			if len(f.forge.forked) != 0 || f.baselines.Calls.Register.Times() != 0 {
				t.Error("Expected promotion to be skipped")
			}
		})
	}
}

func TestWorkflow_Promote_is_idempotent_per_tournament(t *testing.T) {
	f := newFixture()
	f.baselines.Impl.ByOriginTournament = func(context.Context, uuid.UUID) ([]domain.Baseline, error) {
		id := f.tournament.Id
		return []domain.Baseline{{
			Id: uuid.New(), ImageType: domain.Analytics, Version: "v1.3.0",
			Status: domain.BaselineActive, OriginTournamentId: &id,
		}}, nil
	}

	if err := f.testee().Promote(context.Background(), f.tournament, "miner-a"); err != nil {
		t.Fatal(err)
	}
	if len(f.forge.forked) != 0 {
		t.Error("Expected no second promotion for the same tournament")
	}
}

func TestWorkflow_Promote_rejects_unfinished_tournaments(t *testing.T) {
	f := newFixture()
	f.tournament.Status = domain.Scoring

	err := f.testee().Promote(context.Background(), f.tournament, "miner-a")
	if !errors.Is(err, domerr.ErrPhaseViolation) {
		t.Errorf("Expected ErrPhaseViolation, but got %v", err)
	}
}

func TestWorkflow_Promote_keeps_old_baseline_on_build_failure(t *testing.T) {
	f := newFixture()
	f.builder.err = errors.New("docker build exploded")

	err := f.testee().Promote(context.Background(), f.tournament, "miner-a")
	if err == nil {
		t.Fatal("Expected the build failure to surface")
	}

	if f.baselines.Calls.SetStatus.Times() != 1 {
		t.Fatalf("Expected 1 status write, but got %d", f.baselines.Calls.SetStatus.Times())
	}
	marked := f.baselines.Calls.SetStatus[0]
	if marked.Status != domain.BaselineFailed {
		t.Errorf("Expected the new baseline marked failed, but got %s", marked.Status)
	}
	if f.baselines.Calls.Promote.Times() != 0 {
		t.Error("Expected no promotion after a failed build")
	}
}

func TestWorkflow_Seed_creates_the_first_baseline(t *testing.T) {
	f := newFixture()
	f.baselines.Impl.Active = func(context.Context, domain.ImageType) (domain.Baseline, error) {
		return domain.Baseline{}, domerr.ErrMissing
	}

	if err := f.testee().Seed(context.Background(), domain.Analytics, "github.com/chainswarm/seed"); err != nil {
		t.Fatal(err)
	}

	if f.baselines.Calls.Register.Times() != 1 {
		t.Fatalf("Expected 1 registered baseline, but got %d", f.baselines.Calls.Register.Times())
	}
	registered := f.baselines.Calls.Register[0]
	if registered.Version != "v1.0.0" || registered.OriginTournamentId != nil {
		t.Errorf("Expected a v1.0.0 baseline with no origin tournament, but got %+v", registered)
	}
	if f.baselines.Calls.Promote.Times() != 1 {
		t.Fatalf("Expected 1 activation, but got %d", f.baselines.Calls.Promote.Times())
	}
	if flip := f.baselines.Calls.Promote[0]; flip.OldId != uuid.Nil {
		t.Errorf("Expected nothing to supersede, but got %+v", flip)
	}
}

func TestWorkflow_Seed_is_a_noop_with_an_active_baseline(t *testing.T) {
	f := newFixture()

	if err := f.testee().Seed(context.Background(), domain.Analytics, "github.com/chainswarm/seed"); err != nil {
		t.Fatal(err)
	}
	if len(f.forge.forked) != 0 || f.baselines.Calls.Register.Times() != 0 {
		t.Error("Expected seeding to be skipped")
	}
}
