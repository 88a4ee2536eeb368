package workload

import (
	"context"
	"time"

	"github.com/chainswarm/benchmark/pkg/domain"
)

// Spec is one container execution request.
type Spec struct {
	ImageRef string

	// host directory mounted read-only at /data inside the container.
	DatasetPath string

	// host directory mounted writable at /output; the workload leaves
	// report.json there.
	OutputPath string

	// isolated result store assigned to the participant.
	DatabaseName string

	Network    string
	TestDate   time.Time
	WindowDays int

	// hard limits. The container is killed at TimeLimit.
	MemoryLimit int64
	TimeLimit   time.Duration
}

// Outcome is what one container execution came to. Executor errors are
// reserved for infrastructure trouble; a crashing or overrunning workload
// is a regular Outcome.
type Outcome struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration

	// parsed report.json. HasReport is false when the workload left none
	// behind or it did not parse.
	Report    domain.RunReport
	HasReport bool

	// diagnostic detail for failed executions.
	Message string
}

// Executor runs one workload container to completion, enforcing the
// spec's resource and time limits. Implementations must run containers
// with no network access and a read-only root filesystem.
type Executor interface {
	Run(ctx context.Context, spec Spec) (Outcome, error)
}
