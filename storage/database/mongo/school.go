package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kelasi/backend/core/school"
)

type schoolRepository struct {
	coll *mongo.Collection
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *mongo.Database) school.Repository {
	return &schoolRepository{coll: db.Collection(schoolCollection)}
}

func (repo *schoolRepository) GetInfo(ctx context.Context) (school.Info, error) {
	var info school.Info
	err := repo.coll.FindOne(ctx, bson.M{}).Decode(&info)
	if err == mongo.ErrNoDocuments {
		return school.Info{}, school.ErrNotFound
	}
	if err != nil {
		return school.Info{}, errors.Wrap(err, "getting school info")
	}
	return info, nil
}

func (repo *schoolRepository) SaveInfo(ctx context.Context, info school.Info) (school.Info, error) {
	if info.ID == "" {
		info.ID = newID()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": info.ID}, info, opts); err != nil {
		return school.Info{}, errors.Wrap(err, "saving school info")
	}
	return info, nil
}
