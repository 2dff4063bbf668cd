package dummydb

import (
	"context"

	"github.com/kelasi/backend/core/payment/gateway"
	"github.com/kelasi/backend/core/school"
)

type schoolRepository struct {
	db *schoolTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) GetInfo(ctx context.Context) (school.Info, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.info == nil {
		return school.Info{}, school.ErrNotFound
	}
	return *repo.db.info, nil
}

func (repo *schoolRepository) SaveInfo(ctx context.Context, info school.Info) (school.Info, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if info.ID == "" {
		info.ID = nextID()
	}
	repo.db.info = &info
	return info, nil
}

type gatewayConfigRepository struct {
	db *gatewayTable
}

var _ gateway.ConfigRepository = (*gatewayConfigRepository)(nil) // interface compliance check

func NewGatewayConfigRepository(db *DB) gateway.ConfigRepository {
	return &gatewayConfigRepository{db: db.gateway}
}

func (repo *gatewayConfigRepository) GetConfig(ctx context.Context) (gateway.Config, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.conf == nil {
		return gateway.Config{}, gateway.ErrConfigNotFound
	}
	return *repo.db.conf, nil
}

func (repo *gatewayConfigRepository) SaveConfig(ctx context.Context, conf gateway.Config) (gateway.Config, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if conf.ID == "" {
		conf.ID = nextID()
	}
	repo.db.conf = &conf
	return conf, nil
}
