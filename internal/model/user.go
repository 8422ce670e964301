package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a document in the users collection. The social graph is embedded:
// Followers, Following and FollowRequests hold user IDs and are only ever
// mutated through $addToSet/$pull single-document updates.
type User struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email           string               `bson:"email" json:"email"`
	FullName        string               `bson:"fullName" json:"fullName"`
	Number          string               `bson:"number" json:"number"`
	Password        string               `bson:"password" json:"-"` // bcrypt hash, never serialized
	ProfilePic      string               `bson:"profilePic" json:"profilePic"`
	Bio             string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Birthday        *time.Time           `bson:"birthday,omitempty" json:"birthday,omitempty"`
	IsEmailVerified bool                 `bson:"isEmailVerified" json:"isEmailVerified"`
	Followers       []primitive.ObjectID `bson:"followers" json:"followers"`
	Following       []primitive.ObjectID `bson:"following" json:"following"`
	FollowRequests  []primitive.ObjectID `bson:"followRequests" json:"-"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Follows reports whether the user's following set contains id.
func (u *User) Follows(id primitive.ObjectID) bool {
	return containsID(u.Following, id)
}

// HasFollowRequestFrom reports whether id has a pending request on this user.
func (u *User) HasFollowRequestFrom(id primitive.ObjectID) bool {
	return containsID(u.FollowRequests, id)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// UserSummary is the trimmed representation pushed in real-time events and
// returned from follow endpoints.
type UserSummary struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	FullName   string             `bson:"fullName" json:"fullName"`
	Email      string             `bson:"email" json:"email"`
	ProfilePic string             `bson:"profilePic" json:"profilePic"`
}

// Summary projects a user onto its summary form.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
	}
}

// SidebarUser is a user entry in the chat sidebar, annotated with the
// viewer-relative mutual follow status.
type SidebarUser struct {
	User
	IsMutualFollow bool `json:"isMutualFollow"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Number   string `json:"number"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries optional profile mutations. ProfilePic is a
// base64 data URI resolved through the media store before persisting.
type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic,omitempty"`
	Number     string `json:"number,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

var (
	// ErrValidation marks malformed input; wrap it with the specific reason
	ErrValidation = errors.New("invalid input")

	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when signing up with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSelfReference is returned when a graph operation targets the acting user
	ErrSelfReference = errors.New("cannot perform this action on yourself")

	// ErrAlreadyFollowing is returned when a follow edge already exists
	ErrAlreadyFollowing = errors.New("already following this user")

	// ErrNotFollowing is returned when unfollowing without an edge
	ErrNotFollowing = errors.New("not following this user")

	// ErrDuplicateRequest is returned when a follow request is already pending
	ErrDuplicateRequest = errors.New("follow request already sent")

	// ErrNoFollowRequest is returned when accepting or rejecting a request
	// that does not exist, including one that was already handled
	ErrNoFollowRequest = errors.New("no follow request from this user")
)
