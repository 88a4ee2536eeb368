package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"testing"

	"github.com/chainswarm/benchmark/cmd/benchd/handlers"
	apitournaments "github.com/chainswarm/benchmark/pkg/api/types/tournaments"
	httptestutil "github.com/chainswarm/benchmark/internal/testutils/http"
	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	mmock "github.com/chainswarm/benchmark/pkg/domain/miner/db/mock"
	pmock "github.com/chainswarm/benchmark/pkg/domain/participant/db/mock"
	"github.com/chainswarm/benchmark/pkg/domain/tournament/registry"
	tmock "github.com/chainswarm/benchmark/pkg/domain/tournament/db/mock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func silentRegistry(
	mockTournament *tmock.TournamentInterface,
	mockParticipant *pmock.ParticipantInterface,
	mockMiner *mmock.MinerInterface,
) *registry.Registry {
	return registry.New(
		registry.Deps{
			Tournaments:  mockTournament,
			Participants: mockParticipant,
			Miners:       mockMiner,
		},
		log.New(io.Discard, "", 0),
	)
}

func TestRegisterParticipantHandler(t *testing.T) {
	tournament := dummyTournament()
	tournament.Status = domain.Registration

	newMocks := func() (*tmock.TournamentInterface, *pmock.ParticipantInterface, *mmock.MinerInterface) {
		mockTournament := tmock.NewTournamentInterface()
		mockTournament.Impl.Get = func(context.Context, uuid.UUID) (domain.Tournament, error) {
			return tournament, nil
		}
		mockMiner := mmock.NewMinerInterface()
		mockMiner.Impl.Get = func(_ context.Context, hotkey string, _ domain.ImageType) (domain.MinerEntry, error) {
			return domain.MinerEntry{
				Hotkey:     hotkey,
				ImageType:  domain.Analytics,
				Repository: "github.com/miner-a/analytics",
				ImageRef:   "ghcr.io/miner-a/analytics:latest",
				Status:     domain.MinerActive,
			}, nil
		}
		mockParticipant := pmock.NewParticipantInterface()
		return mockTournament, mockParticipant, mockMiner
	}

	t.Run("it registers an eligible miner", func(t *testing.T) {
		mockTournament, mockParticipant, mockMiner := newMocks()
		mockParticipant.Impl.Register = func(context.Context, domain.Participant) (int, error) {
			return 4, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/registration/"+tournament.Id.String(),
			strings.NewReader(`{"hotkey": "miner-a"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetParamNames("tournamentId")
		c.SetParamValues(tournament.Id.String())

		testee := handlers.RegisterParticipantHandler(
			silentRegistry(mockTournament, mockParticipant, mockMiner),
		)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("Expected 201, but got %d", respRec.Result().StatusCode)
		}

		var body apitournaments.Participant
		if err := json.Unmarshal(respRec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Hotkey != "miner-a" || body.RegistrationOrder != 4 {
			t.Errorf("Unexpected body: %+v", body)
		}

		if mockParticipant.Calls.Register.Times() != 1 {
			t.Fatalf("Expected 1 Register, but got %d", mockParticipant.Calls.Register.Times())
		}
		registered := mockParticipant.Calls.Register[0]
		if registered.ImageRef != "ghcr.io/miner-a/analytics:latest" {
			t.Errorf("Expected the directory image ref, but got %s", registered.ImageRef)
		}
		if registered.DatabaseName != fmt.Sprintf("benchmark_%s_miner-a", tournament.Id) {
			t.Errorf("Unexpected database name: %s", registered.DatabaseName)
		}
	})

	t.Run("it translates registry errors to status codes", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			err  error
			code int
		}{
			"full":               {domerr.ErrCapacityExceeded, http.StatusConflict},
			"closed":             {domerr.ErrPhaseViolation, http.StatusConflict},
			"already registered": {domerr.ErrAlreadyRegistered, http.StatusConflict},
			"broken store":       {errors.New("connection reset"), http.StatusInternalServerError},
		} {
			t.Run(name, func(t *testing.T) {
				mockTournament, mockParticipant, mockMiner := newMocks()
				mockParticipant.Impl.Register = func(context.Context, domain.Participant) (int, error) {
					return 0, testcase.err
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/registration/"+tournament.Id.String(),
					strings.NewReader(`{"hotkey": "miner-a"}`),
					httptestutil.ContentType("application/json"),
				)
				c.SetParamNames("tournamentId")
				c.SetParamValues(tournament.Id.String())

				testee := handlers.RegisterParticipantHandler(
					silentRegistry(mockTournament, mockParticipant, mockMiner),
				)
				err := testee(c)

				var httpErr *echo.HTTPError
				if !errors.As(err, &httpErr) || httpErr.Code != testcase.code {
					t.Errorf("Expected %d, but got %v", testcase.code, err)
				}
			})
		}
	})

	t.Run("it rejects inactive miners", func(t *testing.T) {
		mockTournament, mockParticipant, mockMiner := newMocks()
		mockMiner.Impl.Get = func(_ context.Context, hotkey string, _ domain.ImageType) (domain.MinerEntry, error) {
			return domain.MinerEntry{
				Hotkey: hotkey, ImageType: domain.Analytics, Status: domain.MinerBanned,
			}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/registration/"+tournament.Id.String(),
			strings.NewReader(`{"hotkey": "miner-a"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetParamNames("tournamentId")
		c.SetParamValues(tournament.Id.String())

		testee := handlers.RegisterParticipantHandler(
			silentRegistry(mockTournament, mockParticipant, mockMiner),
		)
		err := testee(c)

		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, but got %v", err)
		}
		if mockParticipant.Calls.Register.Times() != 0 {
			t.Error("Expected no registration attempt for a banned miner")
		}
	})

	t.Run("it rejects bodies without a hotkey", func(t *testing.T) {
		mockTournament, mockParticipant, mockMiner := newMocks()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/registration/"+tournament.Id.String(),
			strings.NewReader(`{}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetParamNames("tournamentId")
		c.SetParamValues(tournament.Id.String())

		testee := handlers.RegisterParticipantHandler(
			silentRegistry(mockTournament, mockParticipant, mockMiner),
		)
		err := testee(c)

		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, but got %v", err)
		}
	})
}

func TestUnregisterParticipantHandler(t *testing.T) {
	t.Run("it withdraws a registered miner", func(t *testing.T) {
		tournament := dummyTournament()
		tournament.Status = domain.Registration

		mockTournament := tmock.NewTournamentInterface()
		mockTournament.Impl.Get = func(context.Context, uuid.UUID) (domain.Tournament, error) {
			return tournament, nil
		}
		mockParticipant := pmock.NewParticipantInterface()
		mockParticipant.Impl.Get = func(context.Context, uuid.UUID, string) (domain.Participant, error) {
			return domain.Participant{
				TournamentId: tournament.Id, Hotkey: "miner-a", Type: domain.Miner,
			}, nil
		}
		mockParticipant.Impl.Delete = func(context.Context, uuid.UUID, string) error {
			return nil
		}
		mockMiner := mmock.NewMinerInterface()

		e := echo.New()
		c, respRec := httptestutil.Delete(
			e, "/api/registration/"+tournament.Id.String()+"/miner-a",
		)
		c.SetParamNames("tournamentId", "hotkey")
		c.SetParamValues(tournament.Id.String(), "miner-a")

		testee := handlers.UnregisterParticipantHandler(
			silentRegistry(mockTournament, mockParticipant, mockMiner),
		)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, but got %d", respRec.Result().StatusCode)
		}
		if mockParticipant.Calls.Delete.Times() != 1 {
			t.Errorf("Expected 1 Delete, but got %d", mockParticipant.Calls.Delete.Times())
		}
	})

	t.Run("it refuses once the competition started", func(t *testing.T) {
		tournament := dummyTournament() // in_progress

		mockTournament := tmock.NewTournamentInterface()
		mockTournament.Impl.Get = func(context.Context, uuid.UUID) (domain.Tournament, error) {
			return tournament, nil
		}
		mockParticipant := pmock.NewParticipantInterface()
		mockMiner := mmock.NewMinerInterface()

		e := echo.New()
		c, _ := httptestutil.Delete(
			e, "/api/registration/"+tournament.Id.String()+"/miner-a",
		)
		c.SetParamNames("tournamentId", "hotkey")
		c.SetParamValues(tournament.Id.String(), "miner-a")

		testee := handlers.UnregisterParticipantHandler(
			silentRegistry(mockTournament, mockParticipant, mockMiner),
		)
		err := testee(c)

		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusConflict {
			t.Errorf("Expected 409, but got %v", err)
		}
	})
}

func TestAPIKeyAuth(t *testing.T) {
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	testee := handlers.APIKeyAuth("sesame")(next)

	t.Run("it passes requests with the key", func(t *testing.T) {
		e := echo.New()
		c, respRec := httptestutil.Get(
			e, "/api/registration/x",
			httptestutil.WithHeader("X-Api-Key", "sesame"),
		)

		if err := testee(c); err != nil {
			t.Fatal(err)
		}
		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("Expected 200, but got %d", respRec.Result().StatusCode)
		}
	})

	t.Run("it rejects requests without it", func(t *testing.T) {
		for name, header := range map[string][]string{
			"missing": nil,
			"wrong":   {"X-Api-Key", "axolotl"},
		} {
			t.Run(name, func(t *testing.T) {
				e := echo.New()
				opts := []httptestutil.RequestOption{}
				if header != nil {
					opts = append(opts, httptestutil.WithHeader(header[0], header[1]))
				}
				c, _ := httptestutil.Get(e, "/api/registration/x", opts...)

				err := testee(c)
				var httpErr *echo.HTTPError
				if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
					t.Errorf("Expected 401, but got %v", err)
				}
			})
		}
	})
}
