package mongodb

import (
	"context"
	"errors"

	"github.com/geocoder89/quicknotes/internal/domain/user"
	"github.com/geocoder89/quicknotes/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UsersRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewUsersRepo(db *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{coll: db.Collection(usersCollection), prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := run(ctx, r.prom, "users.create", func(ctx context.Context) error {
		_, err := r.coll.InsertOne(ctx, u)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := run(ctx, r.prom, "users.get_by_email", func(ctx context.Context) error {
		return r.coll.FindOne(ctx, bson.M{"email": user.NormalizeEmail(email)}).Decode(&u)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
