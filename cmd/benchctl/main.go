package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	kcf "github.com/chainswarm/benchmark/pkg/configs/benchmark"
	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/db/postgres/schema"
	"github.com/chainswarm/benchmark/pkg/domain"
	bpg "github.com/chainswarm/benchmark/pkg/domain/baseline/db/postgres"
	"github.com/chainswarm/benchmark/pkg/domain/baseline/promotion"
	"github.com/chainswarm/benchmark/pkg/domain/baseline/promotion/dockerbuild"
	"github.com/chainswarm/benchmark/pkg/domain/baseline/promotion/gitforge"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/dataset"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/scheduler"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/scoring"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/validation"
	valpg "github.com/chainswarm/benchmark/pkg/domain/benchmark/validation/postgres"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/workload/docker"
	epg "github.com/chainswarm/benchmark/pkg/domain/epoch/db/postgres"
	ppg "github.com/chainswarm/benchmark/pkg/domain/participant/db/postgres"
	respg "github.com/chainswarm/benchmark/pkg/domain/result/db/postgres"
	rpg "github.com/chainswarm/benchmark/pkg/domain/run/db/postgres"
	tpg "github.com/chainswarm/benchmark/pkg/domain/tournament/db/postgres"
	"github.com/chainswarm/benchmark/pkg/domain/tournament/lifecycle"
	"github.com/google/uuid"
)

const usage = `benchctl drives tournaments from the command line.

subcommands:
  create          create a draft tournament
  advance         apply the next due lifecycle transition
  day             execute the benchmark queue of one competition day
  score           compute and persist the final ranking
  promote         promote the winner to the new baseline
  cancel          cancel a tournament
  seed-baseline   create the very first baseline of an image type
  schema-upgrade  apply pending database schema versions

common flags (every subcommand):
  --config <path>  configuration file (default $BENCHMARK_CONFIG)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	logger := log.Default()

	var err error
	switch os.Args[1] {
	case "create":
		err = createCommand(ctx, os.Args[2:], logger)
	case "advance":
		err = advanceCommand(ctx, os.Args[2:], logger)
	case "day":
		err = dayCommand(ctx, os.Args[2:], logger)
	case "score":
		err = scoreCommand(ctx, os.Args[2:], logger)
	case "promote":
		err = promoteCommand(ctx, os.Args[2:], logger)
	case "cancel":
		err = cancelCommand(ctx, os.Args[2:], logger)
	case "seed-baseline":
		err = seedBaselineCommand(ctx, os.Args[2:], logger)
	case "schema-upgrade":
		err = schemaUpgradeCommand(ctx, os.Args[2:], logger)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.Printf("error: %s", err)
		}
		os.Exit(1)
	}
}

// session is everything a subcommand may need, wired from the config.
type session struct {
	config *kcf.Config
	pool   kpool.Pool

	tournaments  *handleSet
	logger       *log.Logger
	networkPools map[string]kpool.Pool
}

type handleSet struct {
	orchestrator *lifecycle.Orchestrator
	scheduler    *scheduler.Scheduler
	scorer       *scoring.Engine
	promoter     *promotion.Workflow
}

func configFlag(f *flag.FlagSet) *string {
	return f.String("config", os.Getenv("BENCHMARK_CONFIG"), "path to configuration file")
}

func open(ctx context.Context, configPath string, logger *log.Logger) (*session, error) {
	conf, err := kcf.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("can not read configuration: %w", err)
	}

	pool, err := kpool.New(ctx, conf.Database.URI)
	if err != nil {
		return nil, fmt.Errorf("can not connect to the tournament store: %w", err)
	}

	networkPools := map[string]kpool.Pool{}
	for network, nc := range conf.Networks {
		np, err := kpool.New(ctx, nc.URI)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("can not connect to the %s pipeline store: %w", network, err)
		}
		networkPools[network] = np
	}

	s := &session{
		config:       conf,
		pool:         pool,
		logger:       logger,
		networkPools: networkPools,
	}
	if err := s.wire(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) wire() error {
	tournaments := tpg.New(s.pool)
	participants := ppg.New(s.pool)
	epochs := epg.New(s.pool)
	runs := rpg.New(s.pool)
	results := respg.New(s.pool)
	baselines := bpg.New(s.pool)

	executor, err := docker.New(s.logger)
	if err != nil {
		return fmt.Errorf("can not reach the docker daemon: %w", err)
	}

	oracle := valpg.New(s.networkPools)
	gate := validation.New(
		oracle, oracle, participants,
		s.config.Benchmark.StrikeThreshold,
		s.config.Benchmark.TimeLimit.Duration(),
		s.logger,
	)

	sched := scheduler.New(
		scheduler.Deps{
			Tournaments:  tournaments,
			Participants: participants,
			Epochs:       epochs,
			Runs:         runs,
			Executor:     executor,
			Datasets:     dataset.NewLocalStore(s.config.Benchmark.DatasetRoot),
			Gate:         gate,
		},
		scheduler.Config{
			WorkDir:     s.config.Benchmark.WorkDir,
			MemoryLimit: s.config.Benchmark.MemoryLimitBytes,
			TimeLimit:   s.config.Benchmark.TimeLimit.Duration(),
		},
		s.logger,
	)

	scorer := scoring.New(
		scoring.Deps{
			Participants: participants,
			Runs:         runs,
			Results:      results,
		},
		s.config.Benchmark.TimeLimit.Duration(),
		s.logger,
	)

	builder, err := dockerbuild.New(
		dockerbuild.Config{WorkDir: s.config.Promotion.WorkDir},
		s.logger,
	)
	if err != nil {
		return fmt.Errorf("can not reach the docker daemon: %w", err)
	}
	promoter := promotion.New(
		promotion.Deps{
			Baselines:    baselines,
			Participants: participants,
			Tournaments:  tournaments,
			Forge: gitforge.New(
				gitforge.Config{
					WorkDir:        s.config.Promotion.WorkDir,
					RemoteTemplate: s.config.Promotion.RemoteTemplate,
				},
				s.logger,
			),
			Builder: builder,
		},
		promotion.Config{ImageRegistry: s.config.Promotion.ImageRegistry},
		s.logger,
	)

	orchestrator := lifecycle.New(
		lifecycle.Deps{
			Tournaments:  tournaments,
			Participants: participants,
			Epochs:       epochs,
			Results:      results,
			Baselines:    baselines,
			DayRunner:    sched,
			Scorer:       scorer,
			Promoter:     promoter,
		},
		s.logger,
	)

	s.tournaments = &handleSet{
		orchestrator: orchestrator,
		scheduler:    sched,
		scorer:       scorer,
		promoter:     promoter,
	}
	return nil
}

func (s *session) Close() {
	for _, np := range s.networkPools {
		np.Close()
	}
	s.pool.Close()
}

func createCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("create", flag.ContinueOnError)
	config := configFlag(f)
	name := f.String("name", "", "tournament name")
	imageType := f.String("image-type", "analytics", "image type of the tournament")
	regStart := f.String("registration-start", "", "registration opens (YYYY-MM-DD)")
	regEnd := f.String("registration-end", "", "registration closes (YYYY-MM-DD)")
	epochDays := f.Int("epoch-days", 7, "length of the competition in days")
	maxParticipants := f.Int("max-participants", 16, "miner capacity")
	networks := f.String("networks", "", "comma-separated test networks")
	windows := f.String("windows", "7,30", "comma-separated window sizes in days")
	if err := f.Parse(args); err != nil {
		return err
	}

	it, err := domain.AsImageType(*imageType)
	if err != nil {
		return err
	}
	start, err := time.Parse(time.DateOnly, *regStart)
	if err != nil {
		return fmt.Errorf("--registration-start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, *regEnd)
	if err != nil {
		return fmt.Errorf("--registration-end: %w", err)
	}
	windowDays, err := parseInts(*windows)
	if err != nil {
		return fmt.Errorf("--windows: %w", err)
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.tournaments.orchestrator.Create(ctx, lifecycle.CreateSpec{
		Name:              *name,
		ImageType:         it,
		RegistrationStart: start,
		RegistrationEnd:   end,
		CompetitionStart:  end.AddDate(0, 0, 1),
		MaxParticipants:   *maxParticipants,
		EpochDays:         *epochDays,
		Matrix: domain.TestMatrix{
			Networks:   strings.Split(*networks, ","),
			WindowDays: windowDays,
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(t.Id)
	return nil
}

func advanceCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("advance", flag.ContinueOnError)
	config := configFlag(f)
	id := f.String("id", "", "tournament id")
	asOf := f.String("as-of", "", "treat this date (YYYY-MM-DD) as today; default today")
	dryRun := f.Bool("dry-run", false, "compute the due transition without applying it")
	if err := f.Parse(args); err != nil {
		return err
	}

	tournamentId, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("--id: %w", err)
	}
	when := time.Now()
	if *asOf != "" {
		if when, err = time.Parse(time.DateOnly, *asOf); err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	progress, err := s.tournaments.orchestrator.Advance(ctx, tournamentId, when, *dryRun)
	if err != nil {
		return err
	}

	switch {
	case progress.Transition.To != "":
		fmt.Printf(
			"%s -> %s (%s) applied=%v\n",
			progress.Transition.From, progress.Transition.To,
			progress.Transition.Reason, progress.Applied,
		)
	case progress.DayTriggered != 0:
		fmt.Printf("day %d triggered=%v\n", progress.DayTriggered, progress.Applied)
	case progress.ScoringTriggered:
		fmt.Println("scoring retriggered")
	default:
		fmt.Println("nothing due")
	}
	return nil
}

func dayCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("day", flag.ContinueOnError)
	config := configFlag(f)
	id := f.String("id", "", "tournament id")
	date := f.String("date", "", "competition date (YYYY-MM-DD); default today")
	if err := f.Parse(args); err != nil {
		return err
	}

	tournamentId, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("--id: %w", err)
	}
	day := time.Now()
	if *date != "" {
		if day, err = time.Parse(time.DateOnly, *date); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := tpg.New(s.pool).Get(ctx, tournamentId)
	if err != nil {
		return err
	}
	return s.tournaments.scheduler.RunDay(ctx, t, day)
}

func scoreCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("score", flag.ContinueOnError)
	config := configFlag(f)
	id := f.String("id", "", "tournament id")
	if err := f.Parse(args); err != nil {
		return err
	}

	tournamentId, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("--id: %w", err)
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := tpg.New(s.pool).Get(ctx, tournamentId)
	if err != nil {
		return err
	}
	return s.tournaments.scorer.Score(ctx, t)
}

func promoteCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("promote", flag.ContinueOnError)
	config := configFlag(f)
	id := f.String("id", "", "tournament id")
	if err := f.Parse(args); err != nil {
		return err
	}

	tournamentId, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("--id: %w", err)
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := tpg.New(s.pool).Get(ctx, tournamentId)
	if err != nil {
		return err
	}
	return s.tournaments.promoter.Promote(ctx, t, t.WinnerHotkey)
}

func cancelCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("cancel", flag.ContinueOnError)
	config := configFlag(f)
	id := f.String("id", "", "tournament id")
	if err := f.Parse(args); err != nil {
		return err
	}

	tournamentId, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("--id: %w", err)
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.tournaments.orchestrator.Cancel(ctx, tournamentId)
}

func seedBaselineCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("seed-baseline", flag.ContinueOnError)
	config := configFlag(f)
	imageType := f.String("image-type", "analytics", "image type to seed")
	repository := f.String("repository", "", "source repository of the first baseline")
	if err := f.Parse(args); err != nil {
		return err
	}

	it, err := domain.AsImageType(*imageType)
	if err != nil {
		return err
	}
	if *repository == "" {
		return errors.New("--repository is required")
	}

	s, err := open(ctx, *config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.tournaments.promoter.Seed(ctx, it, *repository)
}

func schemaUpgradeCommand(ctx context.Context, args []string, logger *log.Logger) error {
	f := flag.NewFlagSet("schema-upgrade", flag.ContinueOnError)
	config := configFlag(f)
	repo := f.String("schema-repo", "", "schema definition directory")
	if err := f.Parse(args); err != nil {
		return err
	}
	if *repo == "" {
		return errors.New("--schema-repo is required")
	}

	conf, err := kcf.Load(*config)
	if err != nil {
		return fmt.Errorf("can not read configuration: %w", err)
	}
	pool, err := kpool.New(ctx, conf.Database.URI)
	if err != nil {
		return fmt.Errorf("can not connect to the tournament store: %w", err)
	}
	defer pool.Close()

	sch := schema.New(pool, *repo)
	if err := sch.Upgrade(ctx); err != nil {
		return err
	}
	version, err := sch.Version(ctx)
	if err != nil {
		return err
	}
	logger.Printf("schema is at version %d", version)
	return nil
}

func parseInts(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &n); err != nil {
			return nil, fmt.Errorf("'%s' is not a number", p)
		}
		out = append(out, n)
	}
	return out, nil
}
