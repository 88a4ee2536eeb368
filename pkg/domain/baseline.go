package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BaselineStatus string

const (
	// Baseline row exists; its image is being built.
	BaselineBuilding BaselineStatus = "building"

	// The one baseline new tournaments of this image type benchmark against.
	BaselineActive BaselineStatus = "active"

	// Superseded by a newer baseline.
	BaselineDeprecated BaselineStatus = "deprecated"

	// Image build failed. The previously active baseline stays active.
	BaselineFailed BaselineStatus = "failed"
)

func (bs BaselineStatus) String() string {
	return string(bs)
}

func AsBaselineStatus(s string) (BaselineStatus, error) {
	switch s {
	case string(BaselineBuilding):
		return BaselineBuilding, nil
	case string(BaselineActive):
		return BaselineActive, nil
	case string(BaselineDeprecated):
		return BaselineDeprecated, nil
	case string(BaselineFailed):
		return BaselineFailed, nil
	default:
		return "", fmt.Errorf("'%s' is not BaselineStatus", s)
	}
}

// Baseline is a versioned reference workload. At most one baseline is
// active per image type at any time.
type Baseline struct {
	Id         uuid.UUID
	ImageType  ImageType
	Version    string
	Repository string
	CommitHash string
	ImageRef   string
	Status     BaselineStatus

	// Set when this baseline was promoted out of a tournament.
	OriginTournamentId *uuid.UUID
	OriginHotkey       string

	CreatedAt    time.Time
	ActivatedAt  *time.Time
	DeprecatedAt *time.Time
}

func (b Baseline) ParticipantHotkey() string {
	return "baseline_" + b.Version
}

const initialBaselineVersion = "v1.0.0"

// NextBaselineVersion bumps the minor component and resets patch:
// v1.2.3 -> v1.3.0. An empty current version yields v1.0.0.
func NextBaselineVersion(current string) (string, error) {
	if current == "" {
		return initialBaselineVersion, nil
	}

	parts := strings.Split(strings.TrimPrefix(current, "v"), ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("'%s' is not a baseline version", current)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("'%s' is not a baseline version: %w", current, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("'%s' is not a baseline version: %w", current, err)
	}

	return fmt.Sprintf("v%d.%d.0", major, minor+1), nil
}
