package mock

import (
	"context"
	"errors"

	"github.com/chainswarm/benchmark/pkg/domain"
	dbmock "github.com/chainswarm/benchmark/pkg/domain/internal/db/mock"
	mdb "github.com/chainswarm/benchmark/pkg/domain/miner/db"
)

type MinerInterface struct {
	Impl struct {
		Get func(ctx context.Context, hotkey string, imageType domain.ImageType) (domain.MinerEntry, error)
	}

	Calls struct {
		Get dbmock.CallLog[struct {
			Hotkey    string
			ImageType domain.ImageType
		}]
	}
}

func NewMinerInterface() *MinerInterface {
	return &MinerInterface{}
}

var _ mdb.Interface = &MinerInterface{}

func (m *MinerInterface) Get(ctx context.Context, hotkey string, imageType domain.ImageType) (domain.MinerEntry, error) {
	m.Calls.Get = append(m.Calls.Get, struct {
		Hotkey    string
		ImageType domain.ImageType
	}{Hotkey: hotkey, ImageType: imageType})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, hotkey, imageType)
	}
	panic(errors.New("it should not be called"))
}
