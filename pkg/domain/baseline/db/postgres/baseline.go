package postgres

import (
	"context"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	bdb "github.com/chainswarm/benchmark/pkg/domain/baseline/db"
	"github.com/chainswarm/benchmark/pkg/domain"
	kpgerr "github.com/chainswarm/benchmark/pkg/domain/errors/dberrors/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type pgBaseline struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) bdb.Interface {
	return &pgBaseline{pool: pool}
}

func (p *pgBaseline) Register(ctx context.Context, b domain.Baseline) error {
	_, err := p.pool.Exec(
		ctx,
		`
		insert into "baseline" (
			"id", "image_type", "version", "repository", "commit_hash",
			"image_ref", "status", "origin_tournament_id", "origin_hotkey",
			"created_at"
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		`,
		b.Id, string(b.ImageType), b.Version, b.Repository, b.CommitHash,
		b.ImageRef, string(b.Status), b.OriginTournamentId, b.OriginHotkey,
	)
	return err
}

const baselineColumns = `
	"id", "image_type", "version", "repository", "commit_hash",
	"image_ref", "status", "origin_tournament_id", "origin_hotkey",
	"created_at", "activated_at", "deprecated_at"
`

func (p *pgBaseline) Get(ctx context.Context, id uuid.UUID) (domain.Baseline, error) {
	rows, err := p.pool.Query(
		ctx,
		`select `+baselineColumns+` from "baseline" where "id" = $1`,
		id,
	)
	if err != nil {
		return domain.Baseline{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Baseline{}, err
		}
		return domain.Baseline{}, kpgerr.Missing{
			Table: "baseline", Identity: id.String(),
		}
	}
	return scanBaseline(rows)
}

func (p *pgBaseline) Active(ctx context.Context, imageType domain.ImageType) (domain.Baseline, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select `+baselineColumns+`
		from "baseline"
		where "image_type" = $1 and "status" = $2
		`,
		string(imageType), string(domain.BaselineActive),
	)
	if err != nil {
		return domain.Baseline{}, err
	}
	defer rows.Close()

	found := []domain.Baseline{}
	for rows.Next() {
		b, err := scanBaseline(rows)
		if err != nil {
			return domain.Baseline{}, err
		}
		found = append(found, b)
	}
	if err := rows.Err(); err != nil {
		return domain.Baseline{}, err
	}

	switch len(found) {
	case 0:
		return domain.Baseline{}, kpgerr.Missing{
			Table:    "baseline",
			Identity: "image_type='" + imageType.String() + "', status='active'",
		}
	case 1:
		return found[0], nil
	default:
		return domain.Baseline{}, kpgerr.TooMuch{
			Table:    "baseline",
			Identity: "image_type='" + imageType.String() + "', status='active'",
			Expected: 1,
		}
	}
}

func (p *pgBaseline) SetStatus(ctx context.Context, id uuid.UUID, status domain.BaselineStatus) error {
	tag, err := p.pool.Exec(
		ctx,
		`
		update "baseline"
		set
			"status" = $1,
			"activated_at" = case when $1 = 'active' then now() else "activated_at" end,
			"deprecated_at" = case when $1 = 'deprecated' then now() else "deprecated_at" end
		where "id" = $2
		`,
		string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "baseline", Identity: id.String()}
	}
	return nil
}

func (p *pgBaseline) Promote(ctx context.Context, newId, oldId uuid.UUID) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if oldId != uuid.Nil {
		if _, err := tx.Exec(
			ctx,
			`
			update "baseline"
			set "status" = $1, "deprecated_at" = now()
			where "id" = $2
			`,
			string(domain.BaselineDeprecated), oldId,
		); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(
		ctx,
		`
		update "baseline"
		set "status" = $1, "activated_at" = now()
		where "id" = $2
		`,
		string(domain.BaselineActive), newId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "baseline", Identity: newId.String()}
	}

	return tx.Commit(ctx)
}

func (p *pgBaseline) ByOriginTournament(ctx context.Context, tournamentId uuid.UUID) ([]domain.Baseline, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select `+baselineColumns+`
		from "baseline"
		where "origin_tournament_id" = $1
		order by "created_at"
		`,
		tournamentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []domain.Baseline{}
	for rows.Next() {
		b, err := scanBaseline(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func scanBaseline(rows pgx.Rows) (domain.Baseline, error) {
	b := domain.Baseline{}
	var imageType, status string
	if err := rows.Scan(
		&b.Id, &imageType, &b.Version, &b.Repository, &b.CommitHash,
		&b.ImageRef, &status, &b.OriginTournamentId, &b.OriginHotkey,
		&b.CreatedAt, &b.ActivatedAt, &b.DeprecatedAt,
	); err != nil {
		return domain.Baseline{}, err
	}

	it, err := domain.AsImageType(imageType)
	if err != nil {
		return domain.Baseline{}, err
	}
	b.ImageType = it

	st, err := domain.AsBaselineStatus(status)
	if err != nil {
		return domain.Baseline{}, err
	}
	b.Status = st

	return b, nil
}
