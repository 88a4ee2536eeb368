package postgres

import (
	"context"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	edb "github.com/chainswarm/benchmark/pkg/domain/epoch/db"
	kpgerr "github.com/chainswarm/benchmark/pkg/domain/errors/dberrors/postgres"
	"github.com/google/uuid"
)

type pgEpoch struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) edb.Interface {
	return &pgEpoch{pool: pool}
}

func (p *pgEpoch) Register(ctx context.Context, e domain.Epoch) error {
	_, err := p.pool.Exec(
		ctx,
		`
		insert into "benchmark_epoch" (
			"id", "tournament_id", "image_type",
			"start_date", "end_date", "status", "created_at"
		) values ($1, $2, $3, $4, $5, $6, now())
		`,
		e.Id, e.TournamentId, string(e.ImageType),
		domain.Date(e.StartDate), domain.Date(e.EndDate), string(e.Status),
	)
	return err
}

func (p *pgEpoch) GetByTournament(ctx context.Context, tournamentId uuid.UUID) (domain.Epoch, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select
			"id", "tournament_id", "image_type",
			"start_date", "end_date", "status", "created_at", "completed_at"
		from "benchmark_epoch"
		where "tournament_id" = $1
		`,
		tournamentId,
	)
	if err != nil {
		return domain.Epoch{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Epoch{}, err
		}
		return domain.Epoch{}, kpgerr.Missing{
			Table:    "benchmark_epoch",
			Identity: "tournament_id='" + tournamentId.String() + "'",
		}
	}

	e := domain.Epoch{}
	var imageType, status string
	if err := rows.Scan(
		&e.Id, &e.TournamentId, &imageType,
		&e.StartDate, &e.EndDate, &status, &e.CreatedAt, &e.CompletedAt,
	); err != nil {
		return domain.Epoch{}, err
	}

	it, err := domain.AsImageType(imageType)
	if err != nil {
		return domain.Epoch{}, err
	}
	e.ImageType = it

	st, err := domain.AsEpochStatus(status)
	if err != nil {
		return domain.Epoch{}, err
	}
	e.Status = st

	e.StartDate = domain.Date(e.StartDate)
	e.EndDate = domain.Date(e.EndDate)
	return e, nil
}

func (p *pgEpoch) SetStatus(ctx context.Context, id uuid.UUID, status domain.EpochStatus) error {
	tag, err := p.pool.Exec(
		ctx,
		`
		update "benchmark_epoch"
		set
			"status" = $1,
			"completed_at" = case when $1 = 'completed' then now() else "completed_at" end
		where "id" = $2
		`,
		string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "benchmark_epoch", Identity: id.String()}
	}
	return nil
}
