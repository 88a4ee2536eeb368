package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	binderr "github.com/chainswarm/benchmark/pkg/api/binding/errors"
	bindtournaments "github.com/chainswarm/benchmark/pkg/api/binding/tournaments"
	apitournaments "github.com/chainswarm/benchmark/pkg/api/types/tournaments"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	"github.com/chainswarm/benchmark/pkg/domain/tournament/registry"
	"github.com/labstack/echo/v4"
)

// APIKeyAuth guards the registration API with a pre-shared key carried in
// the X-Api-Key header.
func APIKeyAuth(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return binderr.Unauthorized("api key required", nil)
			}
			return next(c)
		}
	}
}

func RegisterParticipantHandler(reg *registry.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()
		c.Response().Header().Add("Content-Type", "application/json")

		if !strings.HasPrefix(strings.ToLower(req.Header.Get("content-type")), "application/json") {
			return binderr.BadRequest(
				"unexpected content type. it should be application/json", nil,
			)
		}

		id, err := tournamentId(c)
		if err != nil {
			return err
		}

		body := new(apitournaments.RegistrationRequest)
		if err := json.NewDecoder(req.Body).Decode(body); err != nil {
			return binderr.BadRequest("can not understand the requested json", err)
		}
		if body.Hotkey == "" {
			return binderr.BadRequest(`required field missing: "hotkey"`, nil)
		}

		p, err := reg.Register(ctx, id, body.Hotkey)
		if err != nil {
			switch {
			case errors.Is(err, domerr.ErrMissing):
				return binderr.NotFound()
			case errors.Is(err, domerr.ErrIneligible):
				return binderr.BadRequest(
					"the hotkey is not eligible for this tournament", err,
				)
			case errors.Is(err, domerr.ErrPhaseViolation):
				return binderr.Conflict(
					"the tournament is not open for registration",
					binderr.WithError(err),
				)
			case errors.Is(err, domerr.ErrCapacityExceeded):
				return binderr.Conflict(
					"the tournament is full", binderr.WithError(err),
				)
			case errors.Is(err, domerr.ErrAlreadyRegistered):
				return binderr.Conflict(
					"the hotkey is already registered", binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindtournaments.ComposeParticipant(p))
	}
}

func GetRegistrationHandler(reg *registry.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		id, err := tournamentId(c)
		if err != nil {
			return err
		}

		p, err := reg.Status(c.Request().Context(), id, c.Param("hotkey"))
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return binderr.NotFound()
			}
			return binderr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindtournaments.ComposeParticipant(p))
	}
}

func UnregisterParticipantHandler(reg *registry.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := tournamentId(c)
		if err != nil {
			return err
		}

		err = reg.Unregister(c.Request().Context(), id, c.Param("hotkey"))
		if err != nil {
			switch {
			case errors.Is(err, domerr.ErrMissing):
				return binderr.NotFound()
			case errors.Is(err, domerr.ErrPhaseViolation), errors.Is(err, domerr.ErrIneligible):
				return binderr.Conflict(
					"the registration can not be withdrawn",
					binderr.WithError(err),
				)
			}
			return binderr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
