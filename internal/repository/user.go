package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatwave/internal/model"
)

const userCollection = "users"

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection(userCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.FollowRequests == nil {
		user.FollowRequests = []primitive.ObjectID{}
	}

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, except primitive.ObjectID) ([]model.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$ne": except}})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []primitive.ObjectID) ([]model.UserSummary, error) {
	if len(ids) == 0 {
		return []model.UserSummary{}, nil
	}

	projection := bson.M{"_id": 1, "fullName": 1, "email": 1, "profilePic": 1}
	cursor, err := r.coll.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(projection),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	defer cursor.Close(ctx)

	var summaries []model.UserSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode user summaries: %w", err)
	}
	return summaries, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*model.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	var user model.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashed string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"password":  hashed,
		"updatedAt": time.Now().UTC(),
	}})
}

func (r *userRepository) SetEmailVerified(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"isEmailVerified": true,
		"updatedAt":       time.Now().UTC(),
	}})
}

func (r *userRepository) AddFollowRequest(ctx context.Context, target, from primitive.ObjectID) error {
	return r.updateOne(ctx, target, bson.M{"$addToSet": bson.M{"followRequests": from}})
}

func (r *userRepository) RemoveFollowRequest(ctx context.Context, user, requester primitive.ObjectID) error {
	return r.updateOne(ctx, user, bson.M{"$pull": bson.M{"followRequests": requester}})
}

// AcceptRequest runs two single-document updates: first the accepter (pull
// request, add follower), then the requester (add following). The pair is
// not atomic; ordering ensures a crash in between degrades to "request
// consumed" rather than an unearned follower edge being visible on one side
// only after the requester update.
func (r *userRepository) AcceptRequest(ctx context.Context, user, requester primitive.ObjectID) error {
	err := r.updateOne(ctx, user, bson.M{
		"$pull":     bson.M{"followRequests": requester},
		"$addToSet": bson.M{"followers": requester},
	})
	if err != nil {
		return err
	}
	return r.updateOne(ctx, requester, bson.M{"$addToSet": bson.M{"following": user}})
}

func (r *userRepository) AddFollowing(ctx context.Context, user, target primitive.ObjectID) error {
	return r.updateOne(ctx, user, bson.M{"$addToSet": bson.M{"following": target}})
}

func (r *userRepository) AddFollower(ctx context.Context, user, follower primitive.ObjectID) error {
	return r.updateOne(ctx, user, bson.M{"$addToSet": bson.M{"followers": follower}})
}

func (r *userRepository) RemoveFollowing(ctx context.Context, user, target primitive.ObjectID) error {
	return r.updateOne(ctx, user, bson.M{"$pull": bson.M{"following": target}})
}

func (r *userRepository) RemoveFollower(ctx context.Context, user, follower primitive.ObjectID) error {
	return r.updateOne(ctx, user, bson.M{"$pull": bson.M{"followers": follower}})
}

// Delete cascades the user's ID out of every other user's graph sets before
// removing the document, so no dangling references survive account deletion.
func (r *userRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{},
		bson.M{"$pull": bson.M{
			"followers":      id,
			"following":      id,
			"followRequests": id,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to cascade user deletion: %w", err)
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
