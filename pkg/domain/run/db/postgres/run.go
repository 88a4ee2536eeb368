package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	kpgerr "github.com/chainswarm/benchmark/pkg/domain/errors/dberrors/postgres"
	rdb "github.com/chainswarm/benchmark/pkg/domain/run/db"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

type pgRun struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) rdb.Interface {
	return &pgRun{pool: pool}
}

func (p *pgRun) Register(ctx context.Context, r domain.DailyRun) error {
	_, err := p.pool.Exec(
		ctx,
		`
		insert into "daily_run" (
			"id", "epoch_id", "tournament_id",
			"hotkey", "participant_type", "run_order",
			"test_date", "network", "window_days",
			"execution_time_ms", "exit_code",
			"patterns_expected", "patterns_found", "recall",
			"all_addresses_exist", "all_connections_exist", "data_correctness_passed",
			"status", "error_message",
			"disqualified", "disqualification_reason", "created_at"
		) values (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			0, 0, 0, 0, 0, false, false, false,
			$10, '', false, '', now()
		)
		`,
		r.Id, r.EpochId, r.TournamentId,
		r.Hotkey, string(r.ParticipantType), r.RunOrder,
		domain.Date(r.TestDate), r.Network, r.WindowDays,
		string(r.Status),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf(
				"%w: run for %s on %s (%s, %dd) exists",
				domerr.ErrAlreadyRegistered,
				r.Hotkey, domain.Date(r.TestDate).Format(time.DateOnly),
				r.Network, r.WindowDays,
			)
		}
		return err
	}
	return nil
}

func (p *pgRun) Finish(ctx context.Context, r domain.DailyRun) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current string
	if err := tx.QueryRow(
		ctx,
		`select "status" from "daily_run" where "id" = $1 for update`,
		r.Id,
	).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{Table: "daily_run", Identity: r.Id.String()}
		}
		return err
	}
	status, err := domain.AsRunStatus(current)
	if err != nil {
		return err
	}
	if status.Terminal() {
		return kpgerr.StatusConflict{
			Table:    "daily_run",
			Identity: r.Id.String(),
			Expected: domain.RunRunning.String(),
			Actual:   current,
		}
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "daily_run"
		set
			"execution_time_ms" = $1,
			"exit_code" = $2,
			"patterns_expected" = $3,
			"patterns_found" = $4,
			"recall" = $5,
			"all_addresses_exist" = $6,
			"all_connections_exist" = $7,
			"data_correctness_passed" = $8,
			"status" = $9,
			"error_message" = $10,
			"disqualified" = $11,
			"disqualification_reason" = $12
		where "id" = $13
		`,
		r.ExecutionTime.Milliseconds(), r.ExitCode,
		r.PatternsExpected, r.PatternsFound, r.Recall,
		r.AllAddressesExist, r.AllConnectionsExist, r.DataCorrectnessPassed,
		string(r.Status), r.ErrorMessage,
		r.Disqualified, string(r.DisqualificationReason),
		r.Id,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const runColumns = `
	"id", "epoch_id", "tournament_id",
	"hotkey", "participant_type", "run_order",
	"test_date", "network", "window_days",
	"execution_time_ms", "exit_code",
	"patterns_expected", "patterns_found", "recall",
	"all_addresses_exist", "all_connections_exist", "data_correctness_passed",
	"status", "error_message",
	"disqualified", "disqualification_reason", "created_at"
`

func (p *pgRun) FindByTournamentDay(ctx context.Context, tournamentId uuid.UUID, day time.Time) ([]domain.DailyRun, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select `+runColumns+`
		from "daily_run"
		where "tournament_id" = $1 and "test_date" = $2
		order by "run_order"
		`,
		tournamentId, domain.Date(day),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (p *pgRun) FindByParticipant(ctx context.Context, tournamentId uuid.UUID, hotkey string) ([]domain.DailyRun, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select `+runColumns+`
		from "daily_run"
		where "tournament_id" = $1 and "hotkey" = $2
		order by "test_date", "run_order"
		`,
		tournamentId, hotkey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows pgx.Rows) ([]domain.DailyRun, error) {
	found := []domain.DailyRun{}
	for rows.Next() {
		r := domain.DailyRun{}
		var ptype, status, reason string
		var execMillis int64
		if err := rows.Scan(
			&r.Id, &r.EpochId, &r.TournamentId,
			&r.Hotkey, &ptype, &r.RunOrder,
			&r.TestDate, &r.Network, &r.WindowDays,
			&execMillis, &r.ExitCode,
			&r.PatternsExpected, &r.PatternsFound, &r.Recall,
			&r.AllAddressesExist, &r.AllConnectionsExist, &r.DataCorrectnessPassed,
			&status, &r.ErrorMessage,
			&r.Disqualified, &reason, &r.CreatedAt,
		); err != nil {
			return nil, err
		}

		pt, err := domain.AsParticipantType(ptype)
		if err != nil {
			return nil, err
		}
		r.ParticipantType = pt

		st, err := domain.AsRunStatus(status)
		if err != nil {
			return nil, err
		}
		r.Status = st

		dr, err := domain.AsDisqualificationReason(reason)
		if err != nil {
			return nil, err
		}
		r.DisqualificationReason = dr
		r.ExecutionTime = time.Duration(execMillis) * time.Millisecond
		r.TestDate = domain.Date(r.TestDate)
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
