package service

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatwave/internal/model"
)

// =============================================================================
// MOCK MESSAGE REPOSITORY
// =============================================================================

type statusCall struct {
	ID     primitive.ObjectID
	Status string
}

type mockMessageRepo struct {
	insertFn          func(ctx context.Context, msg *model.Message) error
	getByIDFn         func(ctx context.Context, id primitive.ObjectID) (*model.Message, error)
	getConversationFn func(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error)
	updateStatusFn    func(ctx context.Context, id primitive.ObjectID, status string) error
	markAllReadFn     func(ctx context.Context, sender, receiver primitive.ObjectID) (int64, error)

	insertCalls       []*model.Message
	updateStatusCalls []statusCall
}

func (m *mockMessageRepo) Insert(ctx context.Context, msg *model.Message) error {
	m.insertCalls = append(m.insertCalls, msg)
	if m.insertFn != nil {
		return m.insertFn(ctx, msg)
	}
	msg.ID = primitive.NewObjectID()
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Message, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrMessageNotFound
}

func (m *mockMessageRepo) GetConversation(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error) {
	if m.getConversationFn != nil {
		return m.getConversationFn(ctx, a, b)
	}
	return nil, nil
}

func (m *mockMessageRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	m.updateStatusCalls = append(m.updateStatusCalls, statusCall{ID: id, Status: status})
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockMessageRepo) MarkAllRead(ctx context.Context, sender, receiver primitive.ObjectID) (int64, error) {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(ctx, sender, receiver)
	}
	return 0, nil
}

type mockUploader struct {
	uploadFn func(ctx context.Context, dataURI string) (string, error)
}

func (m *mockUploader) UploadImage(ctx context.Context, dataURI string) (string, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, dataURI)
	}
	return "https://media.example.com/img.jpg", nil
}

// mutualPair returns two users that follow each other.
func mutualPair() (*model.User, *model.User) {
	a := newTestUser("alice")
	b := newTestUser("bob")
	a.Following = []primitive.ObjectID{b.ID}
	a.Followers = []primitive.ObjectID{b.ID}
	b.Following = []primitive.ObjectID{a.ID}
	b.Followers = []primitive.ObjectID{a.ID}
	return a, b
}

// =============================================================================
// GATE TESTS
// =============================================================================

func TestMessageService_CanMessage(t *testing.T) {
	mutualA, mutualB := mutualPair()

	oneWayA := newTestUser("oneway-a")
	oneWayB := newTestUser("oneway-b")
	oneWayA.Following = []primitive.ObjectID{oneWayB.ID}
	oneWayB.Followers = []primitive.ObjectID{oneWayA.ID}

	strangerA := newTestUser("stranger-a")
	strangerB := newTestUser("stranger-b")

	repo := newFakeUserRepo(mutualA, mutualB, oneWayA, oneWayB, strangerA, strangerB)
	svc := NewMessageService(&mockMessageRepo{}, repo, &mockUploader{}, nil)

	tests := []struct {
		name string
		a, b primitive.ObjectID
		want bool
	}{
		{"mutual follow", mutualA.ID, mutualB.ID, true},
		{"one-way follow", oneWayA.ID, oneWayB.ID, false},
		{"no relationship", strangerA.ID, strangerB.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanMessage(context.Background(), tt.a, tt.b)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanMessage(a, b) = %v, want %v", got, tt.want)
			}

			// the gate is symmetric
			reversed, err := svc.CanMessage(context.Background(), tt.b, tt.a)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if reversed != got {
				t.Errorf("CanMessage(b, a) = %v, want %v", reversed, got)
			}
		})
	}
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestMessageService_SendMessage_Success(t *testing.T) {
	alice, bob := mutualPair()
	userRepo := newFakeUserRepo(alice, bob)
	msgRepo := &mockMessageRepo{}
	notifier := &recorderNotifier{}
	svc := NewMessageService(msgRepo, userRepo, &mockUploader{}, notifier)

	msg, err := svc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if msg.Status != model.StatusSent {
		t.Errorf("status = %q, want %q", msg.Status, model.StatusSent)
	}
	if msg.SenderID != alice.ID || msg.ReceiverID != bob.ID {
		t.Error("message should carry sender and receiver IDs")
	}
	if len(msgRepo.insertCalls) != 1 {
		t.Errorf("Insert called %d times, want 1", len(msgRepo.insertCalls))
	}

	if len(notifier.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(notifier.pushes))
	}
	if got := notifier.pushes[0]; got.UserID != bob.ID.Hex() || got.Event != "newMessage" {
		t.Errorf("push = (%s, %s), want (%s, newMessage)", got.UserID, got.Event, bob.ID.Hex())
	}
}

func TestMessageService_SendMessage_NotMutual(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	alice.Following = []primitive.ObjectID{bob.ID}
	bob.Followers = []primitive.ObjectID{alice.ID}
	userRepo := newFakeUserRepo(alice, bob)
	msgRepo := &mockMessageRepo{}
	notifier := &recorderNotifier{}
	svc := NewMessageService(msgRepo, userRepo, &mockUploader{}, notifier)

	_, err := svc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{Text: "hi"})
	if !errors.Is(err, model.ErrNotMutualFollow) {
		t.Errorf("err = %v, want ErrNotMutualFollow", err)
	}
	if len(msgRepo.insertCalls) != 0 {
		t.Error("nothing must be persisted when the gate rejects")
	}
	if len(notifier.pushes) != 0 {
		t.Error("nothing must be pushed when the gate rejects")
	}
}

func TestMessageService_SendMessage_Empty(t *testing.T) {
	alice, bob := mutualPair()
	userRepo := newFakeUserRepo(alice, bob)
	msgRepo := &mockMessageRepo{}
	svc := NewMessageService(msgRepo, userRepo, &mockUploader{}, nil)

	_, err := svc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{})
	if !errors.Is(err, model.ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
	if len(msgRepo.insertCalls) != 0 {
		t.Error("empty message must not be persisted")
	}
}

func TestMessageService_SendMessage_UploadFailure(t *testing.T) {
	alice, bob := mutualPair()
	userRepo := newFakeUserRepo(alice, bob)
	msgRepo := &mockMessageRepo{}
	uploader := &mockUploader{
		uploadFn: func(ctx context.Context, dataURI string) (string, error) {
			return "", errors.New("bucket unavailable")
		},
	}
	svc := NewMessageService(msgRepo, userRepo, uploader, &recorderNotifier{})

	_, err := svc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{
		Text:  "look",
		Image: "data:image/jpeg;base64,AAAA",
	})
	if !errors.Is(err, model.ErrUploadFailed) {
		t.Errorf("err = %v, want ErrUploadFailed", err)
	}
	if len(msgRepo.insertCalls) != 0 {
		t.Error("a failed upload must abort the send before persisting")
	}
}

func TestMessageService_SendMessage_NilNotifier(t *testing.T) {
	alice, bob := mutualPair()
	userRepo := newFakeUserRepo(alice, bob)
	svc := NewMessageService(&mockMessageRepo{}, userRepo, &mockUploader{}, nil)

	// offline delivery is best-effort; no notifier means the push is skipped
	if _, err := svc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{Text: "hi"}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

// TestMessaging_RequiresFollowBackAfterAccept walks the whole workflow:
// a request and its acceptance alone do not open the chat; only the
// accepter's explicit follow-back makes the pair mutual and sendable.
func TestMessaging_RequiresFollowBackAfterAccept(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	userRepo := newFakeUserRepo(alice, bob)
	msgRepo := &mockMessageRepo{}
	followSvc := NewFollowService(userRepo, &recorderNotifier{})
	msgSvc := NewMessageService(msgRepo, userRepo, &mockUploader{}, &recorderNotifier{})

	if _, err := followSvc.SendFollowRequest(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := followSvc.AcceptFollowRequest(context.Background(), bob.ID, alice.ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	// accepted but not mutual yet
	_, err := msgSvc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{Text: "hi"})
	if !errors.Is(err, model.ErrNotMutualFollow) {
		t.Fatalf("err = %v, want ErrNotMutualFollow before follow-back", err)
	}

	if _, err := followSvc.Follow(context.Background(), bob.ID, alice.ID); err != nil {
		t.Fatalf("follow back: %v", err)
	}

	msg, err := msgSvc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("send after follow-back: %v", err)
	}
	if msg.Status != model.StatusSent {
		t.Errorf("status = %q, want %q", msg.Status, model.StatusSent)
	}

	// an unfollow closes the gate again, immediately
	if _, err := followSvc.Unfollow(context.Background(), bob.ID, alice.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	_, err = msgSvc.SendMessage(context.Background(), alice.ID, bob.ID, &model.SendMessageRequest{Text: "hi again"})
	if !errors.Is(err, model.ErrNotMutualFollow) {
		t.Errorf("err = %v, want ErrNotMutualFollow after unfollow", err)
	}
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestMessageService_UpdateMessageStatus_Forward(t *testing.T) {
	alice, bob := mutualPair()
	msgID := primitive.NewObjectID()
	msgRepo := &mockMessageRepo{
		getByIDFn: func(ctx context.Context, id primitive.ObjectID) (*model.Message, error) {
			return &model.Message{ID: msgID, SenderID: alice.ID, ReceiverID: bob.ID, Status: model.StatusSent}, nil
		},
	}
	notifier := &recorderNotifier{}
	svc := NewMessageService(msgRepo, newFakeUserRepo(alice, bob), &mockUploader{}, notifier)

	msg, updated, err := svc.UpdateMessageStatus(context.Background(), msgID, model.StatusDelivered)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !updated {
		t.Error("sent -> delivered should report an update")
	}
	if msg.Status != model.StatusDelivered {
		t.Errorf("status = %q, want %q", msg.Status, model.StatusDelivered)
	}
	if len(msgRepo.updateStatusCalls) != 1 {
		t.Fatalf("UpdateStatus called %d times, want 1", len(msgRepo.updateStatusCalls))
	}

	// the sender hears about the transition
	if len(notifier.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(notifier.pushes))
	}
	if got := notifier.pushes[0]; got.UserID != alice.ID.Hex() || got.Event != "messageStatusUpdate" {
		t.Errorf("push = (%s, %s), want (%s, messageStatusUpdate)", got.UserID, got.Event, alice.ID.Hex())
	}
}

func TestMessageService_UpdateMessageStatus_NoRegression(t *testing.T) {
	alice, bob := mutualPair()
	msgID := primitive.NewObjectID()

	tests := []struct {
		name    string
		current string
		next    string
	}{
		{"read to delivered", model.StatusRead, model.StatusDelivered},
		{"delivered to delivered", model.StatusDelivered, model.StatusDelivered},
		{"read to read", model.StatusRead, model.StatusRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgRepo := &mockMessageRepo{
				getByIDFn: func(ctx context.Context, id primitive.ObjectID) (*model.Message, error) {
					return &model.Message{ID: msgID, SenderID: alice.ID, ReceiverID: bob.ID, Status: tt.current}, nil
				},
			}
			notifier := &recorderNotifier{}
			svc := NewMessageService(msgRepo, newFakeUserRepo(alice, bob), &mockUploader{}, notifier)

			msg, updated, err := svc.UpdateMessageStatus(context.Background(), msgID, tt.next)
			if err != nil {
				t.Fatalf("a backward transition is a no-op, not an error; got: %v", err)
			}
			if updated {
				t.Error("updated = true, want false")
			}
			if msg.Status != tt.current {
				t.Errorf("status = %q, want unchanged %q", msg.Status, tt.current)
			}
			if len(msgRepo.updateStatusCalls) != 0 {
				t.Error("no-op transition must not write to the repository")
			}
			if len(notifier.pushes) != 0 {
				t.Error("no-op transition must not emit an event")
			}
		})
	}
}

func TestMessageService_UpdateMessageStatus_Invalid(t *testing.T) {
	svc := NewMessageService(&mockMessageRepo{}, newFakeUserRepo(), &mockUploader{}, nil)

	for _, status := range []string{"sent", "archived", ""} {
		_, _, err := svc.UpdateMessageStatus(context.Background(), primitive.NewObjectID(), status)
		if !errors.Is(err, model.ErrInvalidStatus) {
			t.Errorf("status %q: err = %v, want ErrInvalidStatus", status, err)
		}
	}
}

func TestMessageService_UpdateMessageStatus_NotFound(t *testing.T) {
	svc := NewMessageService(&mockMessageRepo{}, newFakeUserRepo(), &mockUploader{}, nil)

	_, _, err := svc.UpdateMessageStatus(context.Background(), primitive.NewObjectID(), model.StatusRead)
	if !errors.Is(err, model.ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
}

func TestMessageService_MarkAllRead(t *testing.T) {
	alice, bob := mutualPair() // alice sent, bob is reading
	var gotSender, gotReceiver primitive.ObjectID
	msgRepo := &mockMessageRepo{
		markAllReadFn: func(ctx context.Context, sender, receiver primitive.ObjectID) (int64, error) {
			gotSender, gotReceiver = sender, receiver
			return 5, nil
		},
	}
	notifier := &recorderNotifier{}
	svc := NewMessageService(msgRepo, newFakeUserRepo(alice, bob), &mockUploader{}, notifier)

	count, err := svc.MarkAllRead(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if gotSender != alice.ID || gotReceiver != bob.ID {
		t.Error("bulk update should target messages from sender to receiver")
	}

	// one event per bulk operation, not one per message
	if len(notifier.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(notifier.pushes))
	}
	got := notifier.pushes[0]
	if got.UserID != alice.ID.Hex() || got.Event != "bulkReadStatusUpdate" {
		t.Errorf("push = (%s, %s), want (%s, bulkReadStatusUpdate)", got.UserID, got.Event, alice.ID.Hex())
	}
	payload, ok := got.Payload.(map[string]string)
	if !ok || payload["from"] != bob.ID.Hex() {
		t.Errorf("payload = %v, want from=%s", got.Payload, bob.ID.Hex())
	}
}
