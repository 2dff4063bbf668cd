package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kelasi/backend/core/payment/gateway"
)

type gatewayConfigRepository struct {
	coll *mongo.Collection
}

var _ gateway.ConfigRepository = (*gatewayConfigRepository)(nil) // interface compliance check

func NewGatewayConfigRepository(db *mongo.Database) gateway.ConfigRepository {
	return &gatewayConfigRepository{coll: db.Collection(gatewayCollection)}
}

func (repo *gatewayConfigRepository) GetConfig(ctx context.Context) (gateway.Config, error) {
	var conf gateway.Config
	err := repo.coll.FindOne(ctx, bson.M{}).Decode(&conf)
	if err == mongo.ErrNoDocuments {
		return gateway.Config{}, gateway.ErrConfigNotFound
	}
	if err != nil {
		return gateway.Config{}, errors.Wrap(err, "getting gateway config")
	}
	return conf, nil
}

func (repo *gatewayConfigRepository) SaveConfig(ctx context.Context, conf gateway.Config) (gateway.Config, error) {
	if conf.ID == "" {
		conf.ID = newID()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": conf.ID}, conf, opts); err != nil {
		return gateway.Config{}, errors.Wrap(err, "saving gateway config")
	}
	return conf, nil
}
