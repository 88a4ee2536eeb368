package domain

import (
	"fmt"
	"time"
)

type MinerStatus string

const (
	MinerActive   MinerStatus = "active"
	MinerInactive MinerStatus = "inactive"
	MinerBanned   MinerStatus = "banned"
)

func (ms MinerStatus) String() string {
	return string(ms)
}

func AsMinerStatus(s string) (MinerStatus, error) {
	switch s {
	case string(MinerActive):
		return MinerActive, nil
	case string(MinerInactive):
		return MinerInactive, nil
	case string(MinerBanned):
		return MinerBanned, nil
	default:
		return "", fmt.Errorf("'%s' is not MinerStatus", s)
	}
}

// MinerEntry is an identity known to the external miner directory.
// Registration for a tournament is only open to active miners whose
// directory entry carries an image of the tournament's type.
type MinerEntry struct {
	Hotkey     string
	ImageType  ImageType
	Repository string
	ImageRef   string
	Status     MinerStatus
	UpdatedAt  time.Time
}

func (m MinerEntry) Eligible(imageType ImageType) bool {
	return m.Status == MinerActive && m.ImageType == imageType
}
