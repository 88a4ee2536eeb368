package db

import (
	"context"

	"github.com/chainswarm/benchmark/pkg/domain"
)

// Interface is the read side of the external miner directory. The
// directory itself is owned by another service; this module only looks
// identities up when they try to register.
type Interface interface {
	// look a miner up by hotkey and image type.
	//
	// Returns
	//
	// - domain.MinerEntry
	//
	// - error: ErrMissing when the directory has no such entry.
	Get(ctx context.Context, hotkey string, imageType domain.ImageType) (domain.MinerEntry, error)
}
