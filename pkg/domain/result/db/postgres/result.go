package postgres

import (
	"context"
	"time"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	resdb "github.com/chainswarm/benchmark/pkg/domain/result/db"
	"github.com/google/uuid"
)

type pgResult struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) resdb.Interface {
	return &pgResult{pool: pool}
}

func (p *pgResult) Put(ctx context.Context, tournamentId uuid.UUID, results []domain.Result) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`delete from "tournament_result" where "tournament_id" = $1`,
		tournamentId,
	); err != nil {
		return err
	}

	for _, r := range results {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "tournament_result" (
				"tournament_id", "hotkey", "participant_type",
				"pattern_accuracy_score", "data_correctness_score",
				"performance_score", "final_score",
				"data_correctness_all_days", "all_runs_within_time_limit",
				"days_completed", "total_runs_completed",
				"average_execution_time_ms", "baseline_comparison_ratio",
				"rank", "is_winner", "beat_baseline", "miners_beaten",
				"calculated_at"
			) values (
				$1, $2, $3, $4, $5, $6, $7, $8, $9,
				$10, $11, $12, $13, $14, $15, $16, $17, $18
			)
			`,
			tournamentId, r.Hotkey, string(r.ParticipantType),
			r.PatternAccuracyScore, r.DataCorrectnessScore,
			r.PerformanceScore, r.FinalScore,
			r.DataCorrectnessAllDays, r.AllRunsWithinTimeLimit,
			r.DaysCompleted, r.TotalRunsCompleted,
			r.AverageExecutionTime.Milliseconds(), r.BaselineComparisonRatio,
			r.Rank, r.IsWinner, r.BeatBaseline, r.MinersBeaten,
			r.CalculatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *pgResult) List(ctx context.Context, tournamentId uuid.UUID) ([]domain.Result, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select
			"tournament_id", "hotkey", "participant_type",
			"pattern_accuracy_score", "data_correctness_score",
			"performance_score", "final_score",
			"data_correctness_all_days", "all_runs_within_time_limit",
			"days_completed", "total_runs_completed",
			"average_execution_time_ms", "baseline_comparison_ratio",
			"rank", "is_winner", "beat_baseline", "miners_beaten",
			"calculated_at"
		from "tournament_result"
		where "tournament_id" = $1
		order by "rank"
		`,
		tournamentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []domain.Result{}
	for rows.Next() {
		r := domain.Result{}
		var ptype string
		var avgMillis int64
		if err := rows.Scan(
			&r.TournamentId, &r.Hotkey, &ptype,
			&r.PatternAccuracyScore, &r.DataCorrectnessScore,
			&r.PerformanceScore, &r.FinalScore,
			&r.DataCorrectnessAllDays, &r.AllRunsWithinTimeLimit,
			&r.DaysCompleted, &r.TotalRunsCompleted,
			&avgMillis, &r.BaselineComparisonRatio,
			&r.Rank, &r.IsWinner, &r.BeatBaseline, &r.MinersBeaten,
			&r.CalculatedAt,
		); err != nil {
			return nil, err
		}

		pt, err := domain.AsParticipantType(ptype)
		if err != nil {
			return nil, err
		}
		r.ParticipantType = pt

		r.AverageExecutionTime = time.Duration(avgMillis) * time.Millisecond
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
