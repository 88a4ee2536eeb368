package postgres

import (
	"context"
	"fmt"

	kpool "github.com/chainswarm/benchmark/pkg/conn/postgres/pool"
	"github.com/chainswarm/benchmark/pkg/domain"
	kpgerr "github.com/chainswarm/benchmark/pkg/domain/errors/dberrors/postgres"
	mdb "github.com/chainswarm/benchmark/pkg/domain/miner/db"
)

type pgMiner struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) mdb.Interface {
	return &pgMiner{pool: pool}
}

func (p *pgMiner) Get(ctx context.Context, hotkey string, imageType domain.ImageType) (domain.MinerEntry, error) {
	rows, err := p.pool.Query(
		ctx,
		`
		select "hotkey", "image_type", "repository", "image_ref", "status", "updated_at"
		from "miner_registry"
		where "hotkey" = $1 and "image_type" = $2
		`,
		hotkey, string(imageType),
	)
	if err != nil {
		return domain.MinerEntry{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.MinerEntry{}, err
		}
		return domain.MinerEntry{}, kpgerr.Missing{
			Table:    "miner_registry",
			Identity: fmt.Sprintf("hotkey='%s', image_type='%s'", hotkey, imageType),
		}
	}

	m := domain.MinerEntry{}
	var it, status string
	if err := rows.Scan(
		&m.Hotkey, &it, &m.Repository, &m.ImageRef, &status, &m.UpdatedAt,
	); err != nil {
		return domain.MinerEntry{}, err
	}

	imgType, err := domain.AsImageType(it)
	if err != nil {
		return domain.MinerEntry{}, err
	}
	m.ImageType = imgType

	st, err := domain.AsMinerStatus(status)
	if err != nil {
		return domain.MinerEntry{}, err
	}
	m.Status = st

	return m, nil
}
