package postgres

import (
	"context"
	"fmt"
	"time"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	"github.com/chainswarm/benchmark/pkg/domain/benchmark/validation"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
	"github.com/chainswarm/benchmark/pkg/utils/slices"
)

// a planted pattern counts as found when a reported pattern covers at
// least this share of its addresses.
const patternOverlapThreshold = 0.8

// Store answers oracle and audit queries from the per-network pipeline
// databases: observed transfers for existence checks, planted synthetic
// patterns for ground truth.
type Store struct {
	pools map[string]kpool.Pool
}

func New(pools map[string]kpool.Pool) *Store {
	return &Store{pools: pools}
}

var _ validation.Oracle = &Store{}
var _ validation.Auditor = &Store{}

func (s *Store) pool(network string) (kpool.Pool, error) {
	pool, ok := s.pools[network]
	if !ok {
		return nil, fmt.Errorf(
			"%w: no pipeline database for network %s", domerr.ErrMissing, network,
		)
	}
	return pool, nil
}

func (s *Store) MissingAddresses(ctx context.Context, network string, addrs []string) ([]string, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	pool, err := s.pool(network)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(
		ctx,
		`
		select "a" from unnest($1::varchar[]) as "q"("a")
		where not exists (
			select 1 from "transfer"
			where "from_address" = "q"."a" or "to_address" = "q"."a"
		)
		`,
		addrs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	missing := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		missing = append(missing, a)
	}
	return missing, rows.Err()
}

func (s *Store) MissingConnections(ctx context.Context, network string, conns []domain.Connection) ([]domain.Connection, error) {
	if len(conns) == 0 {
		return nil, nil
	}
	pool, err := s.pool(network)
	if err != nil {
		return nil, err
	}

	froms := slices.Map(conns, func(c domain.Connection) string { return c.From })
	tos := slices.Map(conns, func(c domain.Connection) string { return c.To })

	rows, err := pool.Query(
		ctx,
		`
		select "f", "t" from unnest($1::varchar[], $2::varchar[]) as "q"("f", "t")
		where not exists (
			select 1 from "transfer"
			where "from_address" = "q"."f" and "to_address" = "q"."t"
		)
		`,
		froms, tos,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	missing := []domain.Connection{}
	for rows.Next() {
		c := domain.Connection{}
		if err := rows.Scan(&c.From, &c.To); err != nil {
			return nil, err
		}
		missing = append(missing, c)
	}
	return missing, rows.Err()
}

// Audit compares the report against the synthetic patterns planted for
// the (network, date, window) combination. A pattern is found when some
// reported pattern covers enough of its addresses; correctness passes
// only when every planted pattern is found.
func (s *Store) Audit(ctx context.Context, network string, testDate time.Time, windowDays int, report domain.RunReport) (domain.Audit, error) {
	pool, err := s.pool(network)
	if err != nil {
		return domain.Audit{}, err
	}

	rows, err := pool.Query(
		ctx,
		`
		select "pattern_id", "address"
		from "synthetic_pattern"
		where "test_date" = $1 and "window_days" = $2
		`,
		domain.Date(testDate), windowDays,
	)
	if err != nil {
		return domain.Audit{}, err
	}
	defer rows.Close()

	planted := map[string][]string{}
	for rows.Next() {
		var id, addr string
		if err := rows.Scan(&id, &addr); err != nil {
			return domain.Audit{}, err
		}
		planted[id] = append(planted[id], addr)
	}
	if err := rows.Err(); err != nil {
		return domain.Audit{}, err
	}

	audit := domain.Audit{PatternsExpected: len(planted)}
	for _, addrs := range planted {
		if covered(addrs, report.Patterns) {
			audit.PatternsFound++
		}
	}
	if audit.PatternsExpected > 0 {
		audit.Recall = float64(audit.PatternsFound) / float64(audit.PatternsExpected)
		audit.CorrectnessPassed = audit.PatternsFound == audit.PatternsExpected
	} else {
		audit.Recall = 1.0
		audit.CorrectnessPassed = true
	}
	return audit, nil
}

func covered(planted []string, reported []domain.ReportedPattern) bool {
	if len(planted) == 0 {
		return true
	}
	for _, rp := range reported {
		have := map[string]bool{}
		for _, a := range rp.Addresses {
			have[a] = true
		}
		hit := 0
		for _, a := range planted {
			if have[a] {
				hit++
			}
		}
		if float64(hit)/float64(len(planted)) >= patternOverlapThreshold {
			return true
		}
	}
	return false
}
