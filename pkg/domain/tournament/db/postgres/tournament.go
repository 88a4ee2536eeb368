package postgres

import (
	"context"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	kpgerr "github.com/chainswarm/benchmark/pkg/domain/errors/dberrors/postgres"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	"github.com/chainswarm/benchmark/pkg/utils/slices"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

type pgTournament struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) tdb.Interface {
	return &pgTournament{pool: pool}
}

func (p *pgTournament) Register(ctx context.Context, t domain.Tournament) error {
	if err := t.Validate(); err != nil {
		return err
	}

	_, err := p.pool.Exec(
		ctx,
		`
		insert into "tournament" (
			"id", "name", "image_type",
			"registration_start", "registration_end",
			"competition_start", "competition_end",
			"max_participants", "epoch_days",
			"networks", "window_days",
			"baseline_id", "status", "current_day",
			"winner_hotkey", "baseline_beaten", "created_at"
		) values (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, '', false, now()
		)
		`,
		t.Id, t.Name, string(t.ImageType),
		domain.Date(t.RegistrationStart), domain.Date(t.RegistrationEnd),
		domain.Date(t.CompetitionStart), domain.Date(t.CompetitionEnd),
		t.MaxParticipants, t.EpochDays,
		t.Matrix.Networks, int32s(t.Matrix.WindowDays),
		t.BaselineId, string(domain.Draft),
	)
	return err
}

func (p *pgTournament) Get(ctx context.Context, id uuid.UUID) (domain.Tournament, error) {
	return getTournament(ctx, p.pool, id, false)
}

func (p *pgTournament) Find(ctx context.Context, query domain.TournamentFindQuery) ([]domain.Tournament, error) {
	imageTypes := slices.Map(query.ImageType, func(it domain.ImageType) string {
		return string(it)
	})
	statuses := slices.Map(query.Status, func(s domain.TournamentStatus) string {
		return string(s)
	})

	rows, err := p.pool.Query(
		ctx,
		`
		select
			"id", "name", "image_type",
			"registration_start", "registration_end",
			"competition_start", "competition_end",
			"max_participants", "epoch_days",
			"networks", "window_days",
			"baseline_id", "status", "current_day",
			"winner_hotkey", "baseline_beaten", "created_at", "completed_at"
		from "tournament"
		where
			(cardinality($1::varchar[]) = 0 or "image_type" = any($1::varchar[]))
			and (cardinality($2::varchar[]) = 0 or "status" = any($2::varchar[]))
		order by "competition_start", "id"
		limit nullif($3::int, 0) offset $4
		`,
		imageTypes, statuses, query.Limit, query.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []domain.Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func (p *pgTournament) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.TournamentStatus) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	t, err := getTournament(ctx, tx, id, true)
	if err != nil {
		return err
	}
	if t.Status != from {
		return kpgerr.StatusConflict{
			Table:    "tournament",
			Identity: id.String(),
			Expected: from.String(),
			Actual:   t.Status.String(),
		}
	}

	if _, err := tx.Exec(
		ctx,
		`update "tournament" set "status" = $1 where "id" = $2`,
		string(to), id,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *pgTournament) SetCurrentDay(ctx context.Context, id uuid.UUID, day int) error {
	tag, err := p.pool.Exec(
		ctx,
		`update "tournament" set "current_day" = $1 where "id" = $2`,
		day, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "tournament", Identity: id.String()}
	}
	return nil
}

func (p *pgTournament) Complete(ctx context.Context, id uuid.UUID, winnerHotkey string, baselineBeaten bool) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	t, err := getTournament(ctx, tx, id, true)
	if err != nil {
		return err
	}
	if t.Status != domain.Scoring {
		return kpgerr.StatusConflict{
			Table:    "tournament",
			Identity: id.String(),
			Expected: domain.Scoring.String(),
			Actual:   t.Status.String(),
		}
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "tournament"
		set "status" = $1, "winner_hotkey" = $2, "baseline_beaten" = $3, "completed_at" = now()
		where "id" = $4
		`,
		string(domain.Completed), winnerHotkey, baselineBeaten, id,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func getTournament(ctx context.Context, conn kpool.Queryer, id uuid.UUID, forUpdate bool) (domain.Tournament, error) {
	sql := `
	select
		"id", "name", "image_type",
		"registration_start", "registration_end",
		"competition_start", "competition_end",
		"max_participants", "epoch_days",
		"networks", "window_days",
		"baseline_id", "status", "current_day",
		"winner_hotkey", "baseline_beaten", "created_at", "completed_at"
	from "tournament"
	where "id" = $1
	`
	if forUpdate {
		sql += ` for update`
	}

	rows, err := conn.Query(ctx, sql, id)
	if err != nil {
		return domain.Tournament{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Tournament{}, err
		}
		return domain.Tournament{}, kpgerr.Missing{
			Table: "tournament", Identity: id.String(),
		}
	}
	return scanTournament(rows)
}

func scanTournament(rows pgx.Rows) (domain.Tournament, error) {
	t := domain.Tournament{}
	var imageType, status string
	var networks pgtype.TextArray
	var windows pgtype.Int4Array
	if err := rows.Scan(
		&t.Id, &t.Name, &imageType,
		&t.RegistrationStart, &t.RegistrationEnd,
		&t.CompetitionStart, &t.CompetitionEnd,
		&t.MaxParticipants, &t.EpochDays,
		&networks, &windows,
		&t.BaselineId, &status, &t.CurrentDay,
		&t.WinnerHotkey, &t.BaselineBeaten, &t.CreatedAt, &t.CompletedAt,
	); err != nil {
		return domain.Tournament{}, err
	}
	if err := networks.AssignTo(&t.Matrix.Networks); err != nil {
		return domain.Tournament{}, err
	}
	if err := windows.AssignTo(&t.Matrix.WindowDays); err != nil {
		return domain.Tournament{}, err
	}

	it, err := domain.AsImageType(imageType)
	if err != nil {
		return domain.Tournament{}, err
	}
	t.ImageType = it

	st, err := domain.AsTournamentStatus(status)
	if err != nil {
		return domain.Tournament{}, err
	}
	t.Status = st

	t.RegistrationStart = domain.Date(t.RegistrationStart)
	t.RegistrationEnd = domain.Date(t.RegistrationEnd)
	t.CompetitionStart = domain.Date(t.CompetitionStart)
	t.CompetitionEnd = domain.Date(t.CompetitionEnd)

	return t, nil
}

func int32s(vs []int) []int32 {
	return slices.Map(vs, func(v int) int32 { return int32(v) })
}
