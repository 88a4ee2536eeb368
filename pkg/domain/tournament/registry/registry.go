package registry

import (
	"context"
	"fmt"
	"log"

	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	mdb "github.com/chainswarm/benchmark/pkg/domain/miner/db"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/uuid"
)

type Deps struct {
	Tournaments  tdb.Interface
	Participants pdb.Interface
	Miners       mdb.Interface
}

// Registry handles miner registration for tournaments: identity checks
// against the external miner directory, the registration-window phase
// rule, and capacity. Order assignment itself lives in the participant
// store, inside the insert transaction.
type Registry struct {
	deps   Deps
	logger *log.Logger
}

func New(deps Deps, logger *log.Logger) *Registry {
	return &Registry{deps: deps, logger: logger}
}

// Register enrolls a miner into a tournament.
//
// The hotkey must be known to and active in the external miner directory
// for the tournament's image type, and its directory entry must carry a
// well-formed image reference. Phase and capacity violations come back as
// ErrPhaseViolation and ErrCapacityExceeded; a duplicate registration as
// ErrAlreadyRegistered.
func (r *Registry) Register(ctx context.Context, tournamentId uuid.UUID, hotkey string) (domain.Participant, error) {
	t, err := r.deps.Tournaments.Get(ctx, tournamentId)
	if err != nil {
		return domain.Participant{}, err
	}

	miner, err := r.deps.Miners.Get(ctx, hotkey, t.ImageType)
	if err != nil {
		return domain.Participant{}, err
	}
	if !miner.Eligible(t.ImageType) {
		return domain.Participant{}, fmt.Errorf(
			"%w: miner %s is %s in the directory",
			domerr.ErrIneligible, hotkey, miner.Status,
		)
	}
	if _, err := name.ParseReference(miner.ImageRef); err != nil {
		return domain.Participant{}, fmt.Errorf(
			"%w: miner %s has a broken image reference %q: %s",
			domerr.ErrIneligible, hotkey, miner.ImageRef, err,
		)
	}

	p := domain.Participant{
		TournamentId: tournamentId,
		Hotkey:       hotkey,
		Type:         domain.Miner,
		Repository:   miner.Repository,
		ImageRef:     miner.ImageRef,
		DatabaseName: fmt.Sprintf("benchmark_%s_%s", tournamentId, hotkey),
		Status:       domain.Registered,
	}

	order, err := r.deps.Participants.Register(ctx, p)
	if err != nil {
		return domain.Participant{}, err
	}
	p.RegistrationOrder = order

	r.logger.Printf(
		"miner %s registered for tournament %s as #%d", hotkey, tournamentId, order,
	)
	return p, nil
}

// Status is the registration record of one participant.
func (r *Registry) Status(ctx context.Context, tournamentId uuid.UUID, hotkey string) (domain.Participant, error) {
	return r.deps.Participants.Get(ctx, tournamentId, hotkey)
}

// Unregister withdraws a miner before the competition starts. The freed
// slot opens up again, but the withdrawn registration order is never
// reused.
func (r *Registry) Unregister(ctx context.Context, tournamentId uuid.UUID, hotkey string) error {
	t, err := r.deps.Tournaments.Get(ctx, tournamentId)
	if err != nil {
		return err
	}
	if t.Status != domain.Registration {
		return fmt.Errorf(
			"%w: tournament %s is '%s', not open for registration changes",
			domerr.ErrPhaseViolation, tournamentId, t.Status,
		)
	}

	p, err := r.deps.Participants.Get(ctx, tournamentId, hotkey)
	if err != nil {
		return err
	}
	if p.IsBaseline() {
		return fmt.Errorf(
			"%w: the baseline entrant cannot withdraw", domerr.ErrIneligible,
		)
	}

	if err := r.deps.Participants.Delete(ctx, tournamentId, hotkey); err != nil {
		return err
	}
	r.logger.Printf("miner %s withdrew from tournament %s", hotkey, tournamentId)
	return nil
}
