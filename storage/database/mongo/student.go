package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kelasi/backend/core/student"
)

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{coll: db.Collection(studentsCollection)}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = newID()
	if _, err := repo.coll.InsertOne(ctx, std); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var std student.Student
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&std)
	if err == mongo.ErrNoDocuments {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudentByIdentity(ctx context.Context, firstName, surname string, dob time.Time) (student.Student, error) {
	query := bson.M{
		"first_name":    caseInsensitive(firstName),
		"surname":       caseInsensitive(surname),
		"date_of_birth": dob,
	}
	var std student.Student
	err := repo.coll.FindOne(ctx, query).Decode(&std)
	if err == mongo.ErrNoDocuments {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student by identity")
	}
	return std, nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	query := bson.M{}
	if filter.Search != "" {
		regex := bson.M{"$regex": filter.Search, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"first_name": regex},
			bson.M{"surname": regex},
			bson.M{"admission_number": regex},
		}
	}
	if filter.ClassLevel != "" {
		query["class_level"] = filter.ClassLevel
	}
	if filter.Session != "" {
		query["current_session"] = filter.Session
	}

	cursor, err := repo.coll.Find(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	var students []student.Student
	if err = cursor.All(ctx, &students); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	return students, nil
}

func caseInsensitive(s string) bson.M {
	return bson.M{"$regex": "^" + s + "$", "$options": "i"}
}
