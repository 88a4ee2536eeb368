package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
)

// Source provides the prepared, read-only dataset directory for one
// (network, date, window) combination. Every participant of a day gets
// the same directory, so measurements are comparable.
type Source interface {
	Prepare(ctx context.Context, network string, testDate time.Time, windowDays int) (string, error)
}

// LocalStore reads datasets from a directory tree laid out as
// <root>/<network>/<date>/<window>d, populated by the data pipeline.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

var _ Source = &LocalStore{}

func (s *LocalStore) Prepare(ctx context.Context, network string, testDate time.Time, windowDays int) (string, error) {
	path := filepath.Join(
		s.root, network,
		domain.Date(testDate).Format(time.DateOnly),
		fmt.Sprintf("%dd", windowDays),
	)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf(
				"%w: no dataset at %s", domerr.ErrMissing, path,
			)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a dataset directory", path)
	}
	return path, nil
}
