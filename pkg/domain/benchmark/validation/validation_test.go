package validation_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/validation"
	pmock "github.com/chainswarm/benchmark/pkg/domain/participant/db/mock"
	"github.com/google/uuid"
)

type fakeOracle struct {
	missingAddrs []string
	missingConns []domain.Connection
}

func (f *fakeOracle) MissingAddresses(context.Context, string, []string) ([]string, error) {
	return f.missingAddrs, nil
}

func (f *fakeOracle) MissingConnections(context.Context, string, []domain.Connection) ([]domain.Connection, error) {
	return f.missingConns, nil
}

type fakeAuditor struct {
	audit domain.Audit
}

func (f *fakeAuditor) Audit(context.Context, string, time.Time, int, domain.RunReport) (domain.Audit, error) {
	return f.audit, nil
}

func silent() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func subject(p domain.Participant, executionTime time.Duration) validation.Subject {
	return validation.Subject{
		Participant:   p,
		Network:       "bittensor",
		TestDate:      time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC),
		WindowDays:    7,
		Day:           3,
		ExecutionTime: executionTime,
	}
}

func TestGate_Inspect(t *testing.T) {
	tournamentId := uuid.New()
	passingAudit := domain.Audit{
		PatternsExpected: 4, PatternsFound: 4, Recall: 1.0, CorrectnessPassed: true,
	}
	failingAudit := domain.Audit{
		PatternsExpected: 4, PatternsFound: 2, Recall: 0.5, CorrectnessPassed: false,
	}

	for name, testcase := range map[string]struct {
		oracle        fakeOracle
		audit         domain.Audit
		strikesAfter  int
		executionTime time.Duration

		wantKind       validation.VerdictKind
		wantReason     domain.DisqualificationReason
		wantDisqualify bool
		wantStrike     bool
	}{
		"a clean run passes": {
			audit:         passingAudit,
			executionTime: 10 * time.Minute,
			wantKind:      validation.Pass,
		},
		"a fabricated address disqualifies": {
			oracle:         fakeOracle{missingAddrs: []string{"5Fabricated"}},
			audit:          passingAudit,
			executionTime:  10 * time.Minute,
			wantKind:       validation.Disqualify,
			wantReason:     domain.FabricatedAddress,
			wantDisqualify: true,
		},
		"a fabricated connection disqualifies": {
			oracle: fakeOracle{missingConns: []domain.Connection{
				{From: "5Alice", To: "5Nowhere"},
			}},
			audit:          passingAudit,
			executionTime:  10 * time.Minute,
			wantKind:       validation.Disqualify,
			wantReason:     domain.FabricatedConnection,
			wantDisqualify: true,
		},
		"a correctness failure below the threshold is a strike": {
			audit:         failingAudit,
			strikesAfter:  1,
			executionTime: 10 * time.Minute,
			wantKind:      validation.Strike,
			wantStrike:    true,
		},
		"the third strike disqualifies": {
			audit:          failingAudit,
			strikesAfter:   3,
			executionTime:  10 * time.Minute,
			wantKind:       validation.Disqualify,
			wantReason:     domain.RepeatedCorrectnessFailure,
			wantDisqualify: true,
			wantStrike:     true,
		},
		"overrunning the time limit is an overtime verdict": {
			audit:         passingAudit,
			executionTime: 2 * time.Hour,
			wantKind:      validation.Overtime,
		},
	} {
		t.Run(name, func(t *testing.T) {
			participants := pmock.NewParticipantInterface()
			participants.Impl.AddStrike = func(context.Context, uuid.UUID, string) (int, error) {
				return testcase.strikesAfter, nil
			}
			participants.Impl.Disqualify = func(context.Context, uuid.UUID, string, domain.DisqualificationReason, int) error {
				return nil
			}

			oracle := testcase.oracle
			testee := validation.New(
				&oracle, &fakeAuditor{audit: testcase.audit},
				participants, 3, time.Hour, silent(),
			)

			p := domain.Participant{
				TournamentId: tournamentId,
				Hotkey:       "miner-a",
				Type:         domain.Miner,
				Status:       domain.Active,
			}
			verdict, err := testee.Inspect(
				context.Background(), subject(p, testcase.executionTime), domain.RunReport{},
			)
			if err != nil {
				t.Fatal(err)
			}

			if verdict.Kind != testcase.wantKind {
				t.Errorf("Expected verdict %s, but got %s", testcase.wantKind, verdict.Kind)
			}
			if verdict.Reason != testcase.wantReason {
				t.Errorf("Expected reason %q, but got %q", testcase.wantReason, verdict.Reason)
			}

			wantDisqualifyCalls := uint(0)
			if testcase.wantDisqualify {
				wantDisqualifyCalls = 1
			}
			if got := participants.Calls.Disqualify.Times(); got != wantDisqualifyCalls {
				t.Errorf("Expected %d disqualification writes, but got %d", wantDisqualifyCalls, got)
			}
			if testcase.wantDisqualify {
				written := participants.Calls.Disqualify[0]
				if written.Reason != testcase.wantReason || written.Day != 3 {
					t.Errorf("Expected disqualification (%s, day 3), but got %+v", testcase.wantReason, written)
				}
			}

			wantStrikeCalls := uint(0)
			if testcase.wantStrike {
				wantStrikeCalls = 1
			}
			if got := participants.Calls.AddStrike.Times(); got != wantStrikeCalls {
				t.Errorf("Expected %d strike writes, but got %d", wantStrikeCalls, got)
			}
		})
	}
}

func TestGate_Inspect_fabrication_beats_timeout(t *testing.T) {
	participants := pmock.NewParticipantInterface()
	participants.Impl.Disqualify = func(context.Context, uuid.UUID, string, domain.DisqualificationReason, int) error {
		return nil
	}

	testee := validation.New(
		&fakeOracle{missingAddrs: []string{"5Fabricated"}},
		&fakeAuditor{}, participants, 3, time.Hour, silent(),
	)

	p := domain.Participant{TournamentId: uuid.New(), Hotkey: "miner-a"}
	verdict, err := testee.Inspect(
		context.Background(), subject(p, 2*time.Hour), domain.RunReport{},
	)
	if err != nil {
		t.Fatal(err)
	}
	if verdict.Kind != validation.Disqualify || verdict.Reason != domain.FabricatedAddress {
		t.Errorf("Expected fabrication to take precedence, but got %+v", verdict)
	}
	if verdict.AllAddressesExist {
		t.Error("Expected the address flag to be false")
	}
}
