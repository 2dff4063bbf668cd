package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kelasi/backend/core/user"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	check := func(field, value string, dup error) error {
		if value == "" {
			return nil
		}
		query := bson.M{field: value}
		if len(excludedIDs) > 0 {
			query["_id"] = bson.M{"$nin": excludedIDs}
		}
		n, err := repo.coll.CountDocuments(ctx, query)
		if err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if n > 0 {
			return dup
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID()
	if _, err := repo.coll.InsertOne(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.find(ctx, bson.M{})
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"username": username})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.findOne(ctx, bson.M{
		"$or": bson.A{bson.M{"username": username}, bson.M{"email": username}},
	})
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := bson.M{}
	if filter.Search != "" {
		regex := bson.M{"$regex": filter.Search, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"username": regex},
			bson.M{"email": regex},
		}
	}
	if len(filter.Roles) > 0 {
		prefixes := make(bson.A, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			prefixes = append(prefixes, bson.M{"roles": bson.M{"$regex": "^" + role}})
		}
		query["$and"] = bson.A{bson.M{"$or": prefixes}}
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	created := bson.M{}
	if !filter.CreatedFrom.IsZero() {
		created["$gte"] = filter.CreatedFrom.UTC()
	}
	if !filter.CreatedTo.IsZero() {
		created["$lte"] = filter.CreatedTo.UTC()
	}
	if len(created) > 0 {
		query["created_at"] = created
	}
	return repo.find(ctx, query)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	// only save set fields
	set := bson.M{
		"name":       usr.Name,
		"username":   usr.Username,
		"email":      usr.Email,
		"updated_at": usr.UpdatedAt,
	}
	if usr.Roles != nil {
		set["roles"] = usr.Roles
	}
	if usr.PasswordHash != nil {
		set["password_hash"] = usr.PasswordHash
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": usr.ID}, bson.M{"$set": set})
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id string, t time.Time) error {
	_, err := repo.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": t}})
	return errors.Wrap(err, "setting last login")
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return errors.Wrap(err, "deleting users")
}

func (repo *userRepository) findOne(ctx context.Context, query bson.M) (user.User, error) {
	var usr user.User
	err := repo.coll.FindOne(ctx, query).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) find(ctx context.Context, query bson.M) ([]user.User, error) {
	cursor, err := repo.coll.Find(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	var users []user.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	return users, nil
}
