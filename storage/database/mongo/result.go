package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/result"
)

type resultRepository struct {
	coll *mongo.Collection
}

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(db *mongo.Database) result.Repository {
	return &resultRepository{coll: db.Collection(resultsCollection)}
}

func (repo *resultRepository) CreateResult(ctx context.Context, res result.Result) (result.Result, error) {
	res.ID = newID()
	if _, err := repo.coll.InsertOne(ctx, res); err != nil {
		return result.Result{}, errors.Wrap(err, "inserting result")
	}
	return res, nil
}

func (repo *resultRepository) GetResultByKey(
	ctx context.Context, studentID, subject, session string, term core.Term,
) (result.Result, error) {
	query := bson.M{
		"student_id": studentID,
		"subject":    subject,
		"session":    session,
		"term":       term,
	}
	var res result.Result
	err := repo.coll.FindOne(ctx, query).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return result.Result{}, result.ErrNotFound
	}
	if err != nil {
		return result.Result{}, errors.Wrap(err, "getting result by key")
	}
	return res, nil
}

func (repo *resultRepository) SaveResult(ctx context.Context, res result.Result) (result.Result, error) {
	r, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": res.ID}, res)
	if err != nil {
		return result.Result{}, errors.Wrap(err, "saving result")
	}
	if r.MatchedCount == 0 {
		return result.Result{}, result.ErrNotFound
	}
	return res, nil
}

func (repo *resultRepository) FilterResults(ctx context.Context, filter result.QueryFilter) ([]result.Result, error) {
	query := bson.M{}
	if filter.StudentID != "" {
		query["student_id"] = filter.StudentID
	}
	if filter.Session != "" {
		query["session"] = filter.Session
	}
	if filter.Term != "" {
		query["term"] = filter.Term
	}
	if filter.Subject != "" {
		query["subject"] = filter.Subject
	}

	cursor, err := repo.coll.Find(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "filtering results")
	}
	var results []result.Result
	if err = cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "decoding results")
	}
	return results, nil
}
