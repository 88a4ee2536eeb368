package postgres

import (
	"fmt"

	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// requested record is found too much.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s more than %d times",
		t.Identity, t.Table, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return domerr.ErrTooMuch
}

// a compare-and-set write found a status other than the expected one.
type StatusConflict struct {
	Table    string
	Identity string
	Expected string
	Actual   string
}

var _ error = StatusConflict{}

func (c StatusConflict) Error() string {
	return fmt.Sprintf(
		"%s in %s is '%s', not '%s' as expected",
		c.Identity, c.Table, c.Actual, c.Expected,
	)
}

func (c StatusConflict) Unwrap() error {
	return domerr.ErrStatusConflict
}
