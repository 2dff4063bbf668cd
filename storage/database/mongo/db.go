// Package mongodb implements the core repositories on MongoDB. Documents
// keep their domain shape; every collection stores its _id as the hex string
// the domain models carry.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kelasi/backend/core"
)

const (
	connectTimeout = 10 * time.Second

	usersCollection    = "users"
	studentsCollection = "students"
	paymentsCollection = "payments"
	resultsCollection  = "results"
	schoolCollection   = "school"
	gatewayCollection  = "gateway_config"
)

// Open connects to the configured MongoDB deployment and pings it.
func Open(conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client.Database(conf.Database.Name), nil
}

// Close disconnects the underlying client.
func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely
// on. It is idempotent and runs on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		studentsCollection: {
			{Keys: bson.D{{Key: "admission_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "class_level", Value: 1}}},
		},
		paymentsCollection: {
			{
				Keys: bson.D{
					{Key: "student_id", Value: 1},
					{Key: "fee_type", Value: 1},
					{Key: "session", Value: 1},
					{Key: "term", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "installments.reference", Value: 1}}},
		},
		resultsCollection: {
			{
				Keys: bson.D{
					{Key: "student_id", Value: 1},
					{Key: "subject", Value: 1},
					{Key: "session", Value: 1},
					{Key: "term", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

func newID() string { return primitive.NewObjectID().Hex() }
