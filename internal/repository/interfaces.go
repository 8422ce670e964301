package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatwave/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List returns every user except the given one.
	List(ctx context.Context, except primitive.ObjectID) ([]model.User, error)
	GetSummaries(ctx context.Context, ids []primitive.ObjectID) ([]model.UserSummary, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*model.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hashed string) error
	SetEmailVerified(ctx context.Context, id primitive.ObjectID) error

	// Graph edge mutations. Each call is a single-document update and
	// therefore atomic with respect to that user record.
	AddFollowRequest(ctx context.Context, target, from primitive.ObjectID) error
	RemoveFollowRequest(ctx context.Context, user, requester primitive.ObjectID) error
	// AcceptRequest clears the pending request and records the follower on
	// the accepter in one update, then records the following edge on the
	// requester in a second update.
	AcceptRequest(ctx context.Context, user, requester primitive.ObjectID) error
	AddFollowing(ctx context.Context, user, target primitive.ObjectID) error
	AddFollower(ctx context.Context, user, follower primitive.ObjectID) error
	RemoveFollowing(ctx context.Context, user, target primitive.ObjectID) error
	RemoveFollower(ctx context.Context, user, follower primitive.ObjectID) error

	// Delete removes the user document and cascades the ID out of every
	// other user's followers/following/followRequests sets.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Message, error)
	// GetConversation returns every message between the two users,
	// chronological, oldest first.
	GetConversation(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error
	// MarkAllRead transitions every non-read message from sender to receiver
	// to read in one update and returns the number of modified documents.
	MarkAllRead(ctx context.Context, sender, receiver primitive.ObjectID) (int64, error)
}

// OTPRepository is the short-lived verification code store. Entries expire
// on their own after the TTL passed to Set.
type OTPRepository interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	// Get returns model.ErrOTPNotFound when no live code exists for email.
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}
