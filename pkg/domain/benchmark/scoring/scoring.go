package scoring

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	resdb "github.com/chainswarm/benchmark/pkg/domain/result/db"
	rdb "github.com/chainswarm/benchmark/pkg/domain/run/db"
)

type Deps struct {
	Participants pdb.Interface
	Runs         rdb.Interface
	Results      resdb.Interface
}

// Engine computes the final ranking of a tournament from its recorded
// runs. Scoring is deterministic: re-running over the same runs produces
// the same scores and ranks, and the persisted result set is replaced
// rather than appended to.
type Engine struct {
	deps      Deps
	timeLimit time.Duration
	logger    *log.Logger

	now func() time.Time
}

func New(deps Deps, timeLimit time.Duration, logger *log.Logger) *Engine {
	return &Engine{
		deps:      deps,
		timeLimit: timeLimit,
		logger:    logger,
		now:       time.Now,
	}
}

// Score computes and persists the result set of a tournament, and settles
// every participant's terminal status.
//
// A participant is hard-gated to zero when it is disqualified, when any of
// its runs failed correctness, when any run overran the time limit, or
// when it has no completed run at all. Everyone else is scored as
//
//	0.50 * pattern accuracy + 0.30 * data correctness + 0.20 * performance
//
// where performance compares the participant's mean execution time against
// the baseline entrant's, capped at 1.0 so being faster than the baseline
// is rewarded but not unboundedly.
func (e *Engine) Score(ctx context.Context, t domain.Tournament) error {
	participants, err := e.deps.Participants.List(ctx, t.Id)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return fmt.Errorf(
			"%w: tournament %s has no participants to score",
			domerr.ErrMissing, t.Id,
		)
	}

	tallies := make([]tally, 0, len(participants))
	for _, p := range participants {
		runs, err := e.deps.Runs.FindByParticipant(ctx, t.Id, p.Hotkey)
		if err != nil {
			return err
		}
		tallies = append(tallies, newTally(p, runs, e.timeLimit))
	}

	baselineAvg := time.Duration(0)
	for _, ty := range tallies {
		if ty.participant.IsBaseline() && !ty.gated {
			baselineAvg = ty.averageExecutionTime
		}
	}

	calculatedAt := e.now()
	results := make([]domain.Result, 0, len(tallies))
	for _, ty := range tallies {
		results = append(results, ty.score(t, baselineAvg, calculatedAt))
	}

	rank(results, participants)

	baselineScore := 0.0
	for _, r := range results {
		if r.ParticipantType == domain.BaselineReference {
			baselineScore = r.FinalScore
		}
	}
	minerRanks := []int{}
	for i := range results {
		r := &results[i]
		r.BeatBaseline = r.ParticipantType == domain.Miner && r.FinalScore > baselineScore
		if r.ParticipantType == domain.Miner {
			minerRanks = append(minerRanks, r.Rank)
		}
	}
	for i := range results {
		r := &results[i]
		beaten := 0
		for _, mr := range minerRanks {
			if mr > r.Rank {
				beaten++
			}
		}
		r.MinersBeaten = beaten
	}

	if err := e.deps.Results.Put(ctx, t.Id, results); err != nil {
		return err
	}

	byHotkey := map[string]domain.Result{}
	for _, r := range results {
		byHotkey[r.Hotkey] = r
	}
	for _, ty := range tallies {
		if err := e.settle(ctx, ty, byHotkey[ty.participant.Hotkey]); err != nil {
			return err
		}
	}

	first := results[0]
	e.logger.Printf(
		"tournament %s scored: %d results, rank 1 is %s (%s) with %.4f",
		t.Id, len(results), first.Hotkey, first.ParticipantType, first.FinalScore,
	)
	return nil
}

// settle writes the participant's terminal status. A disqualification
// recorded during the competition is never overwritten.
func (e *Engine) settle(ctx context.Context, ty tally, r domain.Result) error {
	p := ty.participant
	if p.Status == domain.Disqualified {
		return nil
	}

	switch {
	case r.FinalScore > 0:
		return e.deps.Participants.SetStatus(ctx, p.TournamentId, p.Hotkey, domain.ParticipantCompleted)
	case ty.totalRunsCompleted == 0 && !p.IsBaseline():
		return e.deps.Participants.Disqualify(
			ctx, p.TournamentId, p.Hotkey, domain.NoCompletedRuns, 0,
		)
	default:
		return e.deps.Participants.SetStatus(ctx, p.TournamentId, p.Hotkey, domain.ParticipantFailed)
	}
}

// tally is the aggregation of one participant's runs.
type tally struct {
	participant domain.Participant

	daysCompleted          int
	totalRunsCompleted     int
	averageExecutionTime   time.Duration
	averageRecall          float64
	correctnessAllDays     bool
	allRunsWithinTimeLimit bool

	gated bool
}

func newTally(p domain.Participant, runs []domain.DailyRun, timeLimit time.Duration) tally {
	ty := tally{
		participant:            p,
		correctnessAllDays:     true,
		allRunsWithinTimeLimit: true,
	}

	days := map[time.Time]bool{}
	totalTime := time.Duration(0)
	totalRecall := 0.0
	for _, r := range runs {
		if !r.DataCorrectnessPassed {
			ty.correctnessAllDays = false
		}
		if r.Status == domain.RunTimeout || (timeLimit > 0 && r.ExecutionTime > timeLimit) {
			ty.allRunsWithinTimeLimit = false
		}
		if r.Status != domain.RunCompleted {
			continue
		}
		ty.totalRunsCompleted++
		days[domain.Date(r.TestDate)] = true
		totalTime += r.ExecutionTime
		totalRecall += r.Recall
	}
	ty.daysCompleted = len(days)
	if ty.totalRunsCompleted > 0 {
		ty.averageExecutionTime = totalTime / time.Duration(ty.totalRunsCompleted)
		ty.averageRecall = totalRecall / float64(ty.totalRunsCompleted)
	}

	ty.gated = p.Status == domain.Disqualified ||
		!ty.correctnessAllDays ||
		!ty.allRunsWithinTimeLimit ||
		ty.totalRunsCompleted == 0

	return ty
}

func (ty tally) score(t domain.Tournament, baselineAvg time.Duration, calculatedAt time.Time) domain.Result {
	r := domain.Result{
		TournamentId:           t.Id,
		Hotkey:                 ty.participant.Hotkey,
		ParticipantType:        ty.participant.Type,
		DataCorrectnessAllDays: ty.correctnessAllDays,
		AllRunsWithinTimeLimit: ty.allRunsWithinTimeLimit,
		DaysCompleted:          ty.daysCompleted,
		TotalRunsCompleted:     ty.totalRunsCompleted,
		AverageExecutionTime:   ty.averageExecutionTime,
		CalculatedAt:           calculatedAt,
	}
	if ty.gated {
		return r
	}

	r.PatternAccuracyScore = ty.averageRecall
	r.DataCorrectnessScore = 1.0

	if baselineAvg > 0 && ty.averageExecutionTime > 0 {
		ratio := float64(baselineAvg) / float64(ty.averageExecutionTime)
		r.BaselineComparisonRatio = ratio
		if ratio > 1.0 {
			ratio = 1.0
		}
		r.PerformanceScore = ratio
	}

	r.FinalScore = domain.PatternAccuracyWeight*r.PatternAccuracyScore +
		domain.DataCorrectnessWeight*r.DataCorrectnessScore +
		domain.PerformanceWeight*r.PerformanceScore
	return r
}

// rank orders results by final score, breaking ties in favor of the
// earlier registrant, and assigns ranks and the winner flag. The winner
// is the rank-1 entry, but only when it is a miner with a positive score.
func rank(results []domain.Result, participants []domain.Participant) {
	orders := map[string]int{}
	for _, p := range participants {
		orders[p.Hotkey] = p.RegistrationOrder
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return orders[results[i].Hotkey] < orders[results[j].Hotkey]
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	if len(results) > 0 {
		first := &results[0]
		first.IsWinner = first.ParticipantType == domain.Miner && first.FinalScore > 0
	}
}
