package user

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crewsync/crewsync/internal/engine/model/user"
	"github.com/crewsync/crewsync/pkg/database"
)

const collectionName = "users"

var ErrNotFound = errors.New("user not found")

type IUserRepository interface {
	GetUserById(ctx context.Context, id string) (*user.User, error)
}

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(mc *database.MongoClient) IUserRepository {
	return &UserRepo{coll: mc.GetCollection(collectionName)}
}

func (r *UserRepo) GetUserById(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}
