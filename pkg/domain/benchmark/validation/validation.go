package validation

import (
	"context"
	"log"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
)

// Oracle answers existence questions against the real pipeline data of a
// network. What a workload reports is only trusted after the oracle has
// seen every address and connection it references.
type Oracle interface {
	// addresses among addrs that the network's pipeline has never seen.
	MissingAddresses(ctx context.Context, network string, addrs []string) ([]string, error)

	// connections among conns that the network's pipeline has never seen.
	MissingConnections(ctx context.Context, network string, conns []domain.Connection) ([]domain.Connection, error)
}

// Auditor checks a report against the ground-truth patterns planted for
// the (network, date, window) combination.
type Auditor interface {
	Audit(ctx context.Context, network string, testDate time.Time, windowDays int, report domain.RunReport) (domain.Audit, error)
}

// VerdictKind classifies the outcome of one inspection, from worst to
// best: disqualification beats strike beats overtime beats pass.
type VerdictKind string

const (
	// run is clean and counts for scoring.
	Pass VerdictKind = "pass"

	// run overran the execution time limit.
	Overtime VerdictKind = "overtime"

	// correctness failed; the participant keeps competing.
	Strike VerdictKind = "strike"

	// fabrication, or too many strikes. The participant is out.
	Disqualify VerdictKind = "disqualify"
)

// Verdict is the gate's judgement of one run.
type Verdict struct {
	Kind   VerdictKind
	Reason domain.DisqualificationReason

	Audit               domain.Audit
	AllAddressesExist   bool
	AllConnectionsExist bool

	// cumulative correctness strikes after this run.
	Strikes int
}

// Subject is one finished run under inspection.
type Subject struct {
	Participant domain.Participant
	Network     string
	TestDate    time.Time
	WindowDays  int

	// 1-origin competition day of the run.
	Day int

	ExecutionTime time.Duration
}

const DefaultStrikeThreshold = 3

type Gate struct {
	oracle       Oracle
	auditor      Auditor
	participants pdb.Interface

	strikeThreshold int
	timeLimit       time.Duration
	logger          *log.Logger
}

func New(
	oracle Oracle,
	auditor Auditor,
	participants pdb.Interface,
	strikeThreshold int,
	timeLimit time.Duration,
	logger *log.Logger,
) *Gate {
	if strikeThreshold <= 0 {
		strikeThreshold = DefaultStrikeThreshold
	}
	return &Gate{
		oracle:          oracle,
		auditor:         auditor,
		participants:    participants,
		strikeThreshold: strikeThreshold,
		timeLimit:       timeLimit,
		logger:          logger,
	}
}

// Inspect judges one finished run. Checks are ordered by severity; the
// first tripped check decides the verdict:
//
//  1. a reported address the pipeline has never seen: disqualify.
//  2. a reported connection the pipeline has never seen: disqualify.
//  3. correctness failed: strike, or disqualify at the threshold.
//  4. execution time over the limit: overtime.
//
// Strikes accumulate over the whole tournament and are never reset.
// Disqualification of the participant is persisted here, so the day
// scheduler only has to skip what is already marked.
func (g *Gate) Inspect(ctx context.Context, s Subject, report domain.RunReport) (Verdict, error) {
	p := s.Participant
	v := Verdict{
		Kind:                Pass,
		AllAddressesExist:   true,
		AllConnectionsExist: true,
		Strikes:             p.CorrectnessStrikes,
	}

	missingAddrs, err := g.oracle.MissingAddresses(ctx, s.Network, report.Addresses)
	if err != nil {
		return Verdict{}, err
	}
	if len(missingAddrs) != 0 {
		v.AllAddressesExist = false
		g.logger.Printf(
			"%s reported %d addresses unknown to %s (first: %s)",
			p.Hotkey, len(missingAddrs), s.Network, missingAddrs[0],
		)
		return g.disqualify(ctx, s, v, domain.FabricatedAddress)
	}

	missingConns, err := g.oracle.MissingConnections(ctx, s.Network, report.Connections)
	if err != nil {
		return Verdict{}, err
	}
	if len(missingConns) != 0 {
		v.AllConnectionsExist = false
		g.logger.Printf(
			"%s reported %d connections unknown to %s (first: %s -> %s)",
			p.Hotkey, len(missingConns), s.Network, missingConns[0].From, missingConns[0].To,
		)
		return g.disqualify(ctx, s, v, domain.FabricatedConnection)
	}

	audit, err := g.auditor.Audit(ctx, s.Network, s.TestDate, s.WindowDays, report)
	if err != nil {
		return Verdict{}, err
	}
	v.Audit = audit

	if !audit.CorrectnessPassed {
		strikes, err := g.participants.AddStrike(ctx, p.TournamentId, p.Hotkey)
		if err != nil {
			return Verdict{}, err
		}
		v.Strikes = strikes
		if strikes >= g.strikeThreshold {
			return g.disqualify(ctx, s, v, domain.RepeatedCorrectnessFailure)
		}
		v.Kind = Strike
		g.logger.Printf(
			"%s failed correctness on %s (%s, %dd): strike %d of %d",
			p.Hotkey, s.TestDate.Format(time.DateOnly), s.Network, s.WindowDays,
			strikes, g.strikeThreshold,
		)
		return v, nil
	}

	if g.timeLimit > 0 && s.ExecutionTime > g.timeLimit {
		v.Kind = Overtime
		return v, nil
	}

	return v, nil
}

func (g *Gate) disqualify(
	ctx context.Context,
	s Subject,
	v Verdict,
	reason domain.DisqualificationReason,
) (Verdict, error) {
	p := s.Participant
	if err := g.participants.Disqualify(ctx, p.TournamentId, p.Hotkey, reason, s.Day); err != nil {
		return Verdict{}, err
	}

	v.Kind = Disqualify
	v.Reason = reason
	g.logger.Printf("%s disqualified on day %d: %s", p.Hotkey, s.Day, reason)
	return v, nil
}
