package tournaments

import (
	"github.com/chainswarm/benchmark/pkg/api/types/misc/rfctime"
	apitournaments "github.com/chainswarm/benchmark/pkg/api/types/tournaments"
	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/utils/slices"
)

func ComposeSummary(t domain.Tournament) apitournaments.Summary {
	return apitournaments.Summary{
		Id:        t.Id.String(),
		Name:      t.Name,
		ImageType: t.ImageType.String(),
		Status:    t.Status.String(),

		RegistrationStart: rfctime.Date(t.RegistrationStart),
		RegistrationEnd:   rfctime.Date(t.RegistrationEnd),
		CompetitionStart:  rfctime.Date(t.CompetitionStart),
		CompetitionEnd:    rfctime.Date(t.CompetitionEnd),

		MaxParticipants: t.MaxParticipants,
		EpochDays:       t.EpochDays,
		Networks:        t.Matrix.Networks,
		WindowDays:      t.Matrix.WindowDays,

		CurrentDay:     t.CurrentDay,
		WinnerHotkey:   t.WinnerHotkey,
		BaselineBeaten: t.BaselineBeaten,

		CreatedAt: rfctime.RFC3339(t.CreatedAt),
	}
}

func ComposeParticipant(p domain.Participant) apitournaments.Participant {
	return apitournaments.Participant{
		Hotkey:            p.Hotkey,
		Type:              p.Type.String(),
		RegistrationOrder: p.RegistrationOrder,
		Status:            p.Status.String(),

		CorrectnessStrikes:     p.CorrectnessStrikes,
		DisqualificationReason: string(p.DisqualificationReason),
		DisqualifiedOnDay:      p.DisqualifiedOnDay,

		RegisteredAt: rfctime.RFC3339(p.RegisteredAt),
	}
}

func ComposeDetail(t domain.Tournament, participants []domain.Participant) apitournaments.Detail {
	return apitournaments.Detail{
		Summary:      ComposeSummary(t),
		Participants: slices.Map(participants, ComposeParticipant),
	}
}

func ComposeLeaderboard(t domain.Tournament, results []domain.Result, participants []domain.Participant) apitournaments.Leaderboard {
	reasons := map[string]domain.DisqualificationReason{}
	for _, p := range participants {
		if p.Status == domain.Disqualified {
			reasons[p.Hotkey] = p.DisqualificationReason
		}
	}

	lb := apitournaments.Leaderboard{
		TournamentId: t.Id.String(),
		Status:       t.Status.String(),
		Entries: slices.Map(results, func(r domain.Result) apitournaments.LeaderboardEntry {
			return apitournaments.LeaderboardEntry{
				Rank:   r.Rank,
				Hotkey: r.Hotkey,
				Type:   r.ParticipantType.String(),

				PatternAccuracyScore: r.PatternAccuracyScore,
				DataCorrectnessScore: r.DataCorrectnessScore,
				PerformanceScore:     r.PerformanceScore,
				FinalScore:           r.FinalScore,

				DaysCompleted:           r.DaysCompleted,
				TotalRunsCompleted:      r.TotalRunsCompleted,
				AverageExecutionSeconds: r.AverageExecutionTime.Seconds(),
				BaselineComparisonRatio: r.BaselineComparisonRatio,

				IsWinner:     r.IsWinner,
				BeatBaseline: r.BeatBaseline,
				MinersBeaten: r.MinersBeaten,

				DisqualificationReason: string(reasons[r.Hotkey]),
			}
		}),
	}
	if len(results) > 0 {
		lb.CalculatedAt = rfctime.RFC3339(results[0].CalculatedAt)
	}
	return lb
}

func ComposeRun(r domain.DailyRun) apitournaments.Run {
	return apitournaments.Run{
		Hotkey:     r.Hotkey,
		Type:       r.ParticipantType.String(),
		RunOrder:   r.RunOrder,
		TestDate:   rfctime.Date(r.TestDate),
		Network:    r.Network,
		WindowDays: r.WindowDays,

		Status:           r.Status.String(),
		ExecutionSeconds: r.ExecutionTime.Seconds(),
		ExitCode:         r.ExitCode,

		PatternsExpected:      r.PatternsExpected,
		PatternsFound:         r.PatternsFound,
		Recall:                r.Recall,
		DataCorrectnessPassed: r.DataCorrectnessPassed,

		Disqualified:           r.Disqualified,
		DisqualificationReason: string(r.DisqualificationReason),
		ErrorMessage:           r.ErrorMessage,
	}
}

func ComposeHistory(p domain.Participant, runs []domain.DailyRun) apitournaments.History {
	return apitournaments.History{
		Participant: ComposeParticipant(p),
		Runs:        slices.Map(runs, ComposeRun),
	}
}
