package dummydb

import (
	"context"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/result"
)

type resultRepository struct {
	db *resultTable
}

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.result}
}

func (repo *resultRepository) CreateResult(ctx context.Context, res result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	res.ID = nextID()
	repo.db.table[res.ID] = &res
	return res, nil
}

func (repo *resultRepository) GetResultByKey(
	ctx context.Context, studentID, subject, session string, term core.Term,
) (result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, res := range repo.db.table {
		if res.StudentID == studentID && res.Subject == subject && res.Session == session && res.Term == term {
			return *res, nil
		}
	}
	return result.Result{}, result.ErrNotFound
}

func (repo *resultRepository) SaveResult(ctx context.Context, res result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[res.ID]; !ok {
		return result.Result{}, result.ErrNotFound
	}
	repo.db.table[res.ID] = &res
	return res, nil
}

func (repo *resultRepository) FilterResults(ctx context.Context, filter result.QueryFilter) ([]result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var results []result.Result
	for _, res := range repo.db.table {
		if filter.StudentID != "" && res.StudentID != filter.StudentID {
			continue
		}
		if filter.Session != "" && res.Session != filter.Session {
			continue
		}
		if filter.Term != "" && res.Term != filter.Term {
			continue
		}
		if filter.Subject != "" && res.Subject != filter.Subject {
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}
