package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatwave/internal/model"
	"chatwave/internal/repository"
)

// ImageUploader is the media store collaborator. Implementations retry
// internally; an error means all attempts were exhausted.
type ImageUploader interface {
	UploadImage(ctx context.Context, dataURI string) (url string, err error)
}

// MessageService owns the messaging gate and the delivery pipeline.
type MessageService struct {
	msgRepo  repository.MessageRepository
	userRepo repository.UserRepository
	uploader ImageUploader
	notifier Notifier
}

func NewMessageService(
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	uploader ImageUploader,
	notifier Notifier,
) *MessageService {
	return &MessageService{
		msgRepo:  msgRepo,
		userRepo: userRepo,
		uploader: uploader,
		notifier: notifier,
	}
}

// CanMessage is the messaging gate: true iff both users currently list each
// other in their following sets. The predicate is evaluated fresh from both
// user documents on every call, never from a cached flag, so an unfollow
// takes effect immediately. Message send and history read both go through
// this one function.
func (s *MessageService) CanMessage(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	userA, err := s.userRepo.GetByID(ctx, a)
	if err != nil {
		return false, err
	}
	userB, err := s.userRepo.GetByID(ctx, b)
	if err != nil {
		return false, err
	}
	return userA.Follows(b) && userB.Follows(a), nil
}

// SendMessage runs the delivery pipeline: gate check, validation, optional
// image upload, persist with status "sent", then a fire-and-forget push to
// the receiver. The persisted message is returned synchronously; the push is
// never awaited and its failure never fails the send.
func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, req *model.SendMessageRequest) (*model.Message, error) {
	ok, err := s.CanMessage(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrNotMutualFollow
	}

	if req.Text == "" && req.Image == "" {
		return nil, model.ErrEmptyMessage
	}

	var imageURL string
	if req.Image != "" {
		imageURL, err = s.uploader.UploadImage(ctx, req.Image)
		if err != nil {
			// abort: no partial message is persisted
			return nil, fmt.Errorf("%w: %v", model.ErrUploadFailed, err)
		}
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      imageURL,
		Status:     model.StatusSent,
	}
	if err := s.msgRepo.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Push(receiverID.Hex(), "newMessage", msg)
	}
	return msg, nil
}

// GetMessages returns the full conversation with peer, oldest first. It is
// gated by the same predicate as SendMessage.
func (s *MessageService) GetMessages(ctx context.Context, userID, peerID primitive.ObjectID) ([]model.Message, error) {
	ok, err := s.CanMessage(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrNotMutualFollow
	}
	return s.msgRepo.GetConversation(ctx, userID, peerID)
}

// UpdateMessageStatus advances a message's status. Statuses only move
// forward (sent -> delivered -> read); a transition to a lower or equal
// priority is a silent no-op, not an error. On an actual transition the
// sender is notified if online.
func (s *MessageService) UpdateMessageStatus(ctx context.Context, messageID primitive.ObjectID, status string) (*model.Message, bool, error) {
	if !model.IsUpdatableStatus(status) {
		return nil, false, model.ErrInvalidStatus
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, false, err
	}

	if model.StatusPriority(status) <= model.StatusPriority(msg.Status) {
		return msg, false, nil
	}

	if err := s.msgRepo.UpdateStatus(ctx, messageID, status); err != nil {
		return nil, false, err
	}
	msg.Status = status

	if s.notifier != nil {
		s.notifier.Push(msg.SenderID.Hex(), "messageStatusUpdate", map[string]string{
			"messageId": messageID.Hex(),
			"status":    status,
		})
	}
	return msg, true, nil
}

// MarkAllRead transitions every unread message from sender to receiver to
// "read" in one bulk update and emits a single bulkReadStatusUpdate to the
// sender, regardless of how many messages changed. One event per chat-open,
// not one per message.
func (s *MessageService) MarkAllRead(ctx context.Context, receiverID, senderID primitive.ObjectID) (int64, error) {
	count, err := s.msgRepo.MarkAllRead(ctx, senderID, receiverID)
	if err != nil {
		return 0, err
	}

	if s.notifier != nil {
		s.notifier.Push(senderID.Hex(), "bulkReadStatusUpdate", map[string]string{
			"from": receiverID.Hex(),
		})
	}
	return count, nil
}
