package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain/benchmark/dataset"
	domerr "github.com/chainswarm/benchmark/pkg/domain/errors"
)

func TestLocalStore_Prepare(t *testing.T) {
	root := t.TempDir()
	prepared := filepath.Join(root, "bittensor", "2025-10-10", "7d")
	if err := os.MkdirAll(prepared, 0o755); err != nil {
		t.Fatal(err)
	}
	asFile := filepath.Join(root, "bittensor", "2025-10-10", "30d")
	if err := os.WriteFile(asFile, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	testee := dataset.NewLocalStore(root)
	testDate := time.Date(2025, 10, 10, 15, 0, 0, 0, time.UTC)

	t.Run("when the dataset directory exists, it returns its path", func(t *testing.T) {
		path, err := testee.Prepare(context.Background(), "bittensor", testDate, 7)
		if err != nil {
			t.Fatal(err)
		}
		if path != prepared {
			t.Errorf("unexpected path: (actual, expected) = (%s, %s)", path, prepared)
		}
	})

	t.Run("when no dataset has been laid out, it returns ErrMissing", func(t *testing.T) {
		_, err := testee.Prepare(context.Background(), "ethereum", testDate, 7)
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %s", err)
		}
	})

	t.Run("when the dataset path is a file, it returns an error", func(t *testing.T) {
		_, err := testee.Prepare(context.Background(), "bittensor", testDate, 30)
		if err == nil {
			t.Error("no error occurred")
		}
		if errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %s", err)
		}
	})
}
