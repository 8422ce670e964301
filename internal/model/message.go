package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message statuses. A message only ever moves forward through this sequence.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// statusPriority orders statuses so transitions can be compared. Unknown
// statuses map to 0 and never win a comparison.
var statusPriority = map[string]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// StatusPriority returns the rank of a message status.
func StatusPriority(status string) int {
	return statusPriority[status]
}

// IsUpdatableStatus reports whether status is accepted by the status update
// endpoint. "sent" is the initial state only and cannot be set explicitly.
func IsUpdatableStatus(status string) bool {
	return status == StatusDelivered || status == StatusRead
}

// Message is a document in the messages collection. Append-only except for
// the Status field.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   primitive.ObjectID `bson:"senderId" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiverId" json:"receiverId"`
	Text       string             `bson:"text,omitempty" json:"text,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// SendMessageRequest is the payload for sending a message. Image, when set,
// is a base64 data URI uploaded to the media store before persisting.
type SendMessageRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

var (
	// ErrMessageNotFound is returned when a message cannot be found
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyMessage is returned when a message has neither text nor image
	ErrEmptyMessage = errors.New("message must contain either text or image")

	// ErrInvalidStatus is returned for a status outside {delivered, read}
	ErrInvalidStatus = errors.New("invalid message status")

	// ErrNotMutualFollow is returned when the messaging gate denies a pair
	ErrNotMutualFollow = errors.New("both users must follow each other to chat")

	// ErrUploadFailed is returned when the media store rejects an image
	// after all retry attempts
	ErrUploadFailed = errors.New("failed to upload image")
)
