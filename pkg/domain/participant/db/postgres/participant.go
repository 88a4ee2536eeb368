package postgres

import (
	"context"
	"errors"
	"fmt"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	kpgerr "github.com/chainswarm/benchmark/pkg/domain/errors/dberrors/postgres"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"

	"github.com/google/uuid"
)

type pgParticipant struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) pdb.Interface {
	return &pgParticipant{pool: pool}
}

func (p *pgParticipant) Register(ctx context.Context, participant domain.Participant) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// lock the tournament row so the phase check, the capacity check and
	// the order assignment see a frozen participant set.
	var status string
	var maxParticipants, counter int
	if err := tx.QueryRow(
		ctx,
		`
		select "status", "max_participants", "registration_counter"
		from "tournament" where "id" = $1 for update
		`,
		participant.TournamentId,
	).Scan(&status, &maxParticipants, &counter); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, kpgerr.Missing{
				Table: "tournament", Identity: participant.TournamentId.String(),
			}
		}
		return 0, err
	}
	if status != string(domain.Registration) {
		return 0, fmt.Errorf(
			"%w: tournament %s is '%s', not open for registration",
			domerr.ErrPhaseViolation, participant.TournamentId, status,
		)
	}

	var minerCount int
	if err := tx.QueryRow(
		ctx,
		`
		select count(*)
		from "tournament_participant"
		where "tournament_id" = $1 and "participant_type" = $2
		`,
		participant.TournamentId, string(domain.Miner),
	).Scan(&minerCount); err != nil {
		return 0, err
	}
	if minerCount >= maxParticipants {
		return 0, fmt.Errorf(
			"%w: tournament %s is full (%d participants)",
			domerr.ErrCapacityExceeded, participant.TournamentId, maxParticipants,
		)
	}

	// the counter only grows, so orders of withdrawn miners are not
	// handed out again.
	order := counter + 1
	if _, err := tx.Exec(
		ctx,
		`update "tournament" set "registration_counter" = $1 where "id" = $2`,
		order, participant.TournamentId,
	); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		ctx,
		`
		insert into "tournament_participant" (
			"tournament_id", "hotkey", "participant_type", "registration_order",
			"repository", "image_ref", "database_name", "baseline_id",
			"status", "correctness_strikes",
			"disqualification_reason", "disqualified_on_day",
			"registered_at", "updated_at"
		) values ($1, $2, $3, $4, $5, $6, $7, null, $8, 0, '', 0, now(), now())
		`,
		participant.TournamentId, participant.Hotkey, string(domain.Miner), order,
		participant.Repository, participant.ImageRef, participant.DatabaseName,
		string(domain.Registered),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf(
				"%w: %s in tournament %s",
				domerr.ErrAlreadyRegistered, participant.Hotkey, participant.TournamentId,
			)
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return order, nil
}

func (p *pgParticipant) AttachBaseline(ctx context.Context, participant domain.Participant) error {
	_, err := p.pool.Exec(
		ctx,
		`
		insert into "tournament_participant" (
			"tournament_id", "hotkey", "participant_type", "registration_order",
			"repository", "image_ref", "database_name", "baseline_id",
			"status", "correctness_strikes",
			"disqualification_reason", "disqualified_on_day",
			"registered_at", "updated_at"
		) values ($1, $2, $3, 0, $4, $5, $6, $7, $8, 0, '', 0, now(), now())
		`,
		participant.TournamentId, participant.Hotkey, string(domain.BaselineReference),
		participant.Repository, participant.ImageRef, participant.DatabaseName,
		participant.BaselineId, string(domain.Registered),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf(
				"%w: baseline entrant of tournament %s",
				domerr.ErrAlreadyRegistered, participant.TournamentId,
			)
		}
		return err
	}
	return nil
}

const participantColumns = `
	"tournament_id", "hotkey", "participant_type", "registration_order",
	"repository", "image_ref", "database_name", "baseline_id",
	"status", "correctness_strikes",
	"disqualification_reason", "disqualified_on_day",
	"registered_at", "updated_at"
`

func (p *pgParticipant) Get(ctx context.Context, tournamentId uuid.UUID, hotkey string) (domain.Participant, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select `+participantColumns+`
		from "tournament_participant"
		where "tournament_id" = $1 and "hotkey" = $2
		`,
		tournamentId, hotkey,
	)
	if err != nil {
		return domain.Participant{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Participant{}, err
		}
		return domain.Participant{}, kpgerr.Missing{
			Table:    "tournament_participant",
			Identity: fmt.Sprintf("tournament_id='%s', hotkey='%s'", tournamentId, hotkey),
		}
	}
	return scanParticipant(rows)
}

func (p *pgParticipant) List(ctx context.Context, tournamentId uuid.UUID) ([]domain.Participant, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select `+participantColumns+`
		from "tournament_participant"
		where "tournament_id" = $1
		order by "registration_order"
		`,
		tournamentId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []domain.Participant{}
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func (p *pgParticipant) ActivateAll(ctx context.Context, tournamentId uuid.UUID) error {
	_, err := p.pool.Exec(
		ctx,
		`
		update "tournament_participant"
		set "status" = $1, "updated_at" = now()
		where "tournament_id" = $2 and "status" = $3
		`,
		string(domain.Active), tournamentId, string(domain.Registered),
	)
	return err
}

func (p *pgParticipant) SetStatus(ctx context.Context, tournamentId uuid.UUID, hotkey string, status domain.ParticipantStatus) error {
	tag, err := p.pool.Exec(
		ctx,
		`
		update "tournament_participant"
		set "status" = $1, "updated_at" = now()
		where "tournament_id" = $2 and "hotkey" = $3
		`,
		string(status), tournamentId, hotkey,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table:    "tournament_participant",
			Identity: fmt.Sprintf("tournament_id='%s', hotkey='%s'", tournamentId, hotkey),
		}
	}
	return nil
}

func (p *pgParticipant) Disqualify(ctx context.Context, tournamentId uuid.UUID, hotkey string, reason domain.DisqualificationReason, day int) error {
	// the status guard keeps the first disqualification's reason and day.
	tag, err := p.pool.Exec(
		ctx,
		`
		update "tournament_participant"
		set
			"status" = $1,
			"disqualification_reason" = $2,
			"disqualified_on_day" = $3,
			"updated_at" = now()
		where "tournament_id" = $4 and "hotkey" = $5 and "status" != $1
		`,
		string(domain.Disqualified), string(reason), day, tournamentId, hotkey,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// already disqualified, or missing. Both are fine to leave as-is
		// for the former; tell them apart for the latter.
		var n int
		if err := p.pool.QueryRow(
			ctx,
			`
			select count(*) from "tournament_participant"
			where "tournament_id" = $1 and "hotkey" = $2
			`,
			tournamentId, hotkey,
		).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return kpgerr.Missing{
				Table:    "tournament_participant",
				Identity: fmt.Sprintf("tournament_id='%s', hotkey='%s'", tournamentId, hotkey),
			}
		}
	}
	return nil
}

func (p *pgParticipant) AddStrike(ctx context.Context, tournamentId uuid.UUID, hotkey string) (int, error) {
	var strikes int
	if err := p.pool.QueryRow(
		ctx,
		`
		update "tournament_participant"
		set "correctness_strikes" = "correctness_strikes" + 1, "updated_at" = now()
		where "tournament_id" = $1 and "hotkey" = $2
		returning "correctness_strikes"
		`,
		tournamentId, hotkey,
	).Scan(&strikes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, kpgerr.Missing{
				Table:    "tournament_participant",
				Identity: fmt.Sprintf("tournament_id='%s', hotkey='%s'", tournamentId, hotkey),
			}
		}
		return 0, err
	}
	return strikes, nil
}

func (p *pgParticipant) Delete(ctx context.Context, tournamentId uuid.UUID, hotkey string) error {
	tag, err := p.pool.Exec(
		ctx,
		`delete from "tournament_participant" where "tournament_id" = $1 and "hotkey" = $2`,
		tournamentId, hotkey,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table:    "tournament_participant",
			Identity: fmt.Sprintf("tournament_id='%s', hotkey='%s'", tournamentId, hotkey),
		}
	}
	return nil
}

func scanParticipant(rows pgx.Rows) (domain.Participant, error) {
	participant := domain.Participant{}
	var ptype, status, reason string
	if err := rows.Scan(
		&participant.TournamentId, &participant.Hotkey, &ptype, &participant.RegistrationOrder,
		&participant.Repository, &participant.ImageRef, &participant.DatabaseName, &participant.BaselineId,
		&status, &participant.CorrectnessStrikes,
		&reason, &participant.DisqualifiedOnDay,
		&participant.RegisteredAt, &participant.UpdatedAt,
	); err != nil {
		return domain.Participant{}, err
	}

	pt, err := domain.AsParticipantType(ptype)
	if err != nil {
		return domain.Participant{}, err
	}
	participant.Type = pt

	st, err := domain.AsParticipantStatus(status)
	if err != nil {
		return domain.Participant{}, err
	}
	participant.Status = st

	dr, err := domain.AsDisqualificationReason(reason)
	if err != nil {
		return domain.Participant{}, err
	}
	participant.DisqualificationReason = dr
	return participant, nil
}
