package promotion

import (
	"context"
	"errors"
	"fmt"
	"log"

	bdb "github.com/chainswarm/benchmark/pkg/domain/baseline/db"
	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/uuid"
)

// ForkRequest asks the forge to snapshot a winner's source into the
// managed baseline repository.
type ForkRequest struct {
	ImageType domain.ImageType

	// where the winner's source lives.
	SourceRepository string

	// version tag of the new baseline, e.g. v1.3.0.
	Version string
}

// Fork result: where the snapshot ended up.
type Fork struct {
	Repository string
	CommitHash string
}

// Forge snapshots winner source trees into versioned baseline
// repositories.
type Forge interface {
	Fork(ctx context.Context, req ForkRequest) (Fork, error)
}

// ImageBuilder builds and publishes the image of a forked baseline under
// the given reference.
type ImageBuilder interface {
	Build(ctx context.Context, repository, commitHash, imageRef string) error
}

type Deps struct {
	Baselines    bdb.Interface
	Participants pdb.Interface
	Tournaments  tdb.Interface

	Forge   Forge
	Builder ImageBuilder
}

type Config struct {
	// registry prefix new baseline images are tagged under,
	// e.g. ghcr.io/chainswarm.
	ImageRegistry string
}

// Workflow turns tournament winners into new active baselines.
//
// Promotion is guarded: it does nothing unless the completed tournament
// has a winning miner that beat the baseline, and it never runs twice for
// the same tournament. A failed image build leaves the previous baseline
// active.
type Workflow struct {
	deps   Deps
	config Config
	logger *log.Logger
}

func New(deps Deps, config Config, logger *log.Logger) *Workflow {
	return &Workflow{deps: deps, config: config, logger: logger}
}

// Promote runs the promotion workflow for a completed tournament.
// Skipped promotions are not errors; every skip is logged with its
// reason.
func (w *Workflow) Promote(ctx context.Context, t domain.Tournament, winnerHotkey string) error {
	// re-read: the caller's copy may predate the completion write.
	fresh, err := w.deps.Tournaments.Get(ctx, t.Id)
	if err != nil {
		return err
	}

	if fresh.Status != domain.Completed {
		return fmt.Errorf(
			"%w: tournament %s is %s, not completed",
			domerr.ErrPhaseViolation, fresh.Id, fresh.Status,
		)
	}
	if winnerHotkey == "" || !fresh.BaselineBeaten {
		w.logger.Printf(
			"tournament %s: nothing to promote (winner=%q, baseline beaten=%v)",
			fresh.Id, winnerHotkey, fresh.BaselineBeaten,
		)
		return nil
	}

	winner, err := w.deps.Participants.Get(ctx, fresh.Id, winnerHotkey)
	if err != nil {
		return err
	}
	if winner.IsBaseline() {
		// the baseline outscoring every miner is a no-op, not a new version.
		w.logger.Printf("tournament %s: baseline won; no promotion", fresh.Id)
		return nil
	}

	promoted, err := w.deps.Baselines.ByOriginTournament(ctx, fresh.Id)
	if err != nil {
		return err
	}
	for _, b := range promoted {
		if b.Status == domain.BaselineActive || b.Status == domain.BaselineBuilding {
			w.logger.Printf(
				"tournament %s: baseline %s already promoted (%s)",
				fresh.Id, b.Version, b.Status,
			)
			return nil
		}
	}

	current, err := w.deps.Baselines.Active(ctx, fresh.ImageType)
	if err != nil && !errors.Is(err, domerr.ErrMissing) {
		return err
	}

	version, err := domain.NextBaselineVersion(current.Version)
	if err != nil {
		return err
	}

	w.logger.Printf(
		"tournament %s: promoting %s to %s baseline %s",
		fresh.Id, winner.Hotkey, fresh.ImageType, version,
	)
	return w.build(ctx, buildRequest{
		imageType:        fresh.ImageType,
		version:          version,
		sourceRepository: winner.Repository,
		originTournament: &fresh.Id,
		originHotkey:     winner.Hotkey,
		supersedes:       current.Id,
	})
}

// Seed creates the very first baseline of an image type from a managed
// repository, before any tournament has run. It is a no-op when an
// active baseline already exists.
func (w *Workflow) Seed(ctx context.Context, imageType domain.ImageType, repository string) error {
	if current, err := w.deps.Baselines.Active(ctx, imageType); err == nil {
		w.logger.Printf(
			"%s baseline %s is already active; nothing to seed", imageType, current.Version,
		)
		return nil
	} else if !errors.Is(err, domerr.ErrMissing) {
		return err
	}

	version, err := domain.NextBaselineVersion("")
	if err != nil {
		return err
	}

	return w.build(ctx, buildRequest{
		imageType:        imageType,
		version:          version,
		sourceRepository: repository,
		supersedes:       uuid.Nil,
	})
}

type buildRequest struct {
	imageType        domain.ImageType
	version          string
	sourceRepository string
	originTournament *uuid.UUID
	originHotkey     string
	supersedes       uuid.UUID
}

func (w *Workflow) build(ctx context.Context, req buildRequest) error {
	fork, err := w.deps.Forge.Fork(ctx, ForkRequest{
		ImageType:        req.imageType,
		SourceRepository: req.sourceRepository,
		Version:          req.version,
	})
	if err != nil {
		return fmt.Errorf("fork %s: %w", req.sourceRepository, err)
	}

	imageRef := fmt.Sprintf(
		"%s/baseline-%s:%s", w.config.ImageRegistry, req.imageType, req.version,
	)
	if _, err := name.ParseReference(imageRef); err != nil {
		return fmt.Errorf("bad baseline image reference %s: %w", imageRef, err)
	}

	b := domain.Baseline{
		Id:                 uuid.New(),
		ImageType:          req.imageType,
		Version:            req.version,
		Repository:         fork.Repository,
		CommitHash:         fork.CommitHash,
		ImageRef:           imageRef,
		Status:             domain.BaselineBuilding,
		OriginTournamentId: req.originTournament,
		OriginHotkey:       req.originHotkey,
	}
	if err := w.deps.Baselines.Register(ctx, b); err != nil {
		return err
	}

	if err := w.deps.Builder.Build(ctx, fork.Repository, fork.CommitHash, imageRef); err != nil {
		// previous baseline stays active.
		if serr := w.deps.Baselines.SetStatus(ctx, b.Id, domain.BaselineFailed); serr != nil {
			return errors.Join(err, serr)
		}
		return fmt.Errorf("build %s: %w", imageRef, err)
	}

	if err := w.deps.Baselines.Promote(ctx, b.Id, req.supersedes); err != nil {
		return err
	}
	w.logger.Printf("%s baseline %s is now active (%s)", req.imageType, req.version, imageRef)
	return nil
}
