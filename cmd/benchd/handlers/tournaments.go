package handlers

import (
	"errors"
	"net/http"
	"strconv"

	binderr "github.com/chainswarm/benchmark/pkg/api/binding/errors"
	bindtournaments "github.com/chainswarm/benchmark/pkg/api/binding/tournaments"
	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	pdb "github.com/chainswarm/benchmark/pkg/domain/participant/db"
	resdb "github.com/chainswarm/benchmark/pkg/domain/result/db"
	rdb "github.com/chainswarm/benchmark/pkg/domain/run/db"
	tdb "github.com/chainswarm/benchmark/pkg/domain/tournament/db"
	kstrings "github.com/chainswarm/benchmark/pkg/utils/strings"
	"github.com/chainswarm/benchmark/pkg/utils/slices"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func FindTournamentHandler(dbt tdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := domain.TournamentFindQuery{}
		for _, p := range kstrings.SplitIfNotEmpty(c.QueryParam("imageType"), ",") {
			it, err := domain.AsImageType(p)
			if err != nil {
				return binderr.BadRequest(
					`"imageType" should be a known image type`, err,
				)
			}
			query.ImageType = append(query.ImageType, it)
		}
		for _, p := range kstrings.SplitIfNotEmpty(c.QueryParam("status"), ",") {
			s, err := domain.AsTournamentStatus(p)
			if err != nil {
				return binderr.BadRequest(
					`"status" should be one of "draft", "registration", "in_progress", "scoring", "completed" or "cancelled"`,
					err,
				)
			}
			query.Status = append(query.Status, s)
		}
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return binderr.BadRequest(
					`"limit" should be a non-negative integer`, err,
				)
			}
			query.Limit = n
		}
		if raw := c.QueryParam("offset"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return binderr.BadRequest(
					`"offset" should be a non-negative integer`, err,
				)
			}
			query.Offset = n
		}

		found, err := dbt.Find(c.Request().Context(), query)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(
			http.StatusOK,
			slices.Map(found, bindtournaments.ComposeSummary),
		)
	}
}

func GetTournamentHandler(dbt tdb.Interface, dbp pdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		id, err := tournamentId(c)
		if err != nil {
			return err
		}

		t, err := dbt.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		participants, err := dbp.List(ctx, id)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindtournaments.ComposeDetail(t, participants))
	}
}

func LeaderboardHandler(dbt tdb.Interface, dbres resdb.Interface, dbp pdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		id, err := tournamentId(c)
		if err != nil {
			return err
		}

		t, err := dbt.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		results, err := dbres.List(ctx, id)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		participants, err := dbp.List(ctx, id)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindtournaments.ComposeLeaderboard(t, results, participants))
	}
}

func DayRunsHandler(dbt tdb.Interface, dbrun rdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		id, err := tournamentId(c)
		if err != nil {
			return err
		}

		t, err := dbt.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		day, err := strconv.Atoi(c.Param("day"))
		if err != nil || day < 1 || t.EpochDays < day {
			return binderr.BadRequest(
				`"day" should be a competition day number, starting at 1`, err,
			)
		}

		runs, err := dbrun.FindByTournamentDay(ctx, id, t.DateOfDay(day))
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(
			http.StatusOK,
			slices.Map(runs, bindtournaments.ComposeRun),
		)
	}
}

func ParticipantHistoryHandler(dbp pdb.Interface, dbrun rdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		id, err := tournamentId(c)
		if err != nil {
			return err
		}
		hotkey := c.Param("hotkey")

		p, err := dbp.Get(ctx, id, hotkey)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		runs, err := dbrun.FindByParticipant(ctx, id, hotkey)
		if err != nil {
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindtournaments.ComposeHistory(p, runs))
	}
}

func tournamentId(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("tournamentId"))
	if err != nil {
		return uuid.Nil, binderr.BadRequest(
			`"tournamentId" should be a UUID`, err,
		)
	}
	return id, nil
}
