package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	coll *mongo.Collection
}

type userDoc struct {
	ID           string    `bson:"_id"`
	FullName     string    `bson:"fullName"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (d userDoc) toUser() *users.User {
	return &users.User{
		ID:           d.ID,
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         users.RoleType(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (ur *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC().Truncate(time.Millisecond)
	user.Email = users.NormaliseEmail(user.Email)

	_, err := ur.coll.InsertOne(ctx, userDoc{
		ID:           user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrUserExists
	}
	return err
}

func (ur *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := ur.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (ur *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return ur.findOne(ctx, bson.D{{Key: "email", Value: users.NormaliseEmail(email)}})
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return ur.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (ur *UserRepo) findOne(ctx context.Context, filter bson.D) (*users.User, error) {
	var doc userDoc
	err := ur.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

func (ur *UserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error) {
	found := make(map[string]*users.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	cur, err := ur.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		found[d.ID] = d.toUser()
	}
	return found, nil
}
