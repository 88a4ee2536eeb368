package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chainswarm/benchmark/cmd/benchd/handlers"
	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	kcf "github.com/chainswarm/benchmark/pkg/configs/benchmark"
	"github.com/chainswarm/benchmark/pkg/db/postgres/schema"
	mpg "github.com/chainswarm/benchmark/pkg/domain/miner/db/postgres"
	ppg "github.com/chainswarm/benchmark/pkg/domain/participant/db/postgres"
	respg "github.com/chainswarm/benchmark/pkg/domain/result/db/postgres"
	rpg "github.com/chainswarm/benchmark/pkg/domain/run/db/postgres"
	tpg "github.com/chainswarm/benchmark/pkg/domain/tournament/db/postgres"
	"github.com/chainswarm/benchmark/pkg/domain/tournament/registry"
	"github.com/chainswarm/benchmark/pkg/utils/echoutil"
	"github.com/chainswarm/benchmark/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String("config-path", "", "server config path")
	schemaRepo := flag.String("schema-repo", "", "schema definition directory (optional; enables schema watch)")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	conf, err := kcf.Load(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}
	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	ctx := context.Background()

	// restart for a new configuration rather than reloading in place.
	{
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configuration: %s", err)
		}
		defer cancel()
		context.AfterFunc(wctx, func() {
			log.Println("configuration file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	pool, err := kpool.New(ctx, conf.Database.URI)
	if err != nil {
		log.Fatalf("can not connect to the tournament store: %s", err)
	}
	defer pool.Close()

	if *schemaRepo != "" {
		sch := schema.New(pool, *schemaRepo)
		sctx, cancel := sch.Context(ctx)
		defer cancel()
		context.AfterFunc(sctx, func() {
			log.Println("database schema is outdated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by schema change: %s", err)
			}
		})
	}

	tournaments := tpg.New(pool)
	participants := ppg.New(pool)
	runs := rpg.New(pool)
	results := respg.New(pool)

	reg := registry.New(
		registry.Deps{
			Tournaments:  tournaments,
			Participants: participants,
			Miners:       mpg.New(pool),
		},
		log.Default(),
	)

	{
		e.GET("/api/tournaments/", handlers.FindTournamentHandler(tournaments))
		e.GET("/api/tournaments/:tournamentId/", handlers.GetTournamentHandler(tournaments, participants))
		e.GET("/api/tournaments/:tournamentId/leaderboard/", handlers.LeaderboardHandler(tournaments, results, participants))
		e.GET("/api/tournaments/:tournamentId/days/:day/", handlers.DayRunsHandler(tournaments, runs))
		e.GET(
			"/api/tournaments/:tournamentId/participants/:hotkey/history/",
			handlers.ParticipantHistoryHandler(participants, runs),
		)
	}

	{
		g := e.Group("/api/registration", handlers.APIKeyAuth(conf.Server.APIKey))
		g.POST("/:tournamentId/", handlers.RegisterParticipantHandler(reg))
		g.GET("/:tournamentId/:hotkey/", handlers.GetRegistrationHandler(reg))
		g.DELETE("/:tournamentId/:hotkey/", handlers.UnregisterParticipantHandler(reg))
	}

	log.Println("registered routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	port := ":" + strconv.Itoa(int(conf.Server.Port))
	if cert, key := *pcert, *pkey; cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(port, cert, key))
	} else {
		e.Logger.Fatal(e.Start(port))
	}
}
