package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatwave/internal/model"
	"chatwave/internal/repository"
)

// FollowService owns the follow workflow: the request/accept/reject state
// machine plus the direct follow/unfollow pair. Every mutation lands as a
// $addToSet/$pull on a single user document; cross-document operations are
// two sequential single-document updates (see repository.UserRepository).
type FollowService struct {
	userRepo repository.UserRepository
	notifier Notifier
}

func NewFollowService(userRepo repository.UserRepository, notifier Notifier) *FollowService {
	return &FollowService{
		userRepo: userRepo,
		notifier: notifier,
	}
}

// SendFollowRequest records a pending request from sender on the target's
// document and returns the target's summary.
//
// Duplicate requests are rejected with model.ErrDuplicateRequest rather than
// silently deduplicated; the caller must observe the conflict.
func (s *FollowService) SendFollowRequest(ctx context.Context, senderID, targetID primitive.ObjectID) (*model.UserSummary, error) {
	if senderID == targetID {
		return nil, model.ErrSelfReference
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if sender.Follows(targetID) {
		return nil, model.ErrAlreadyFollowing
	}
	if target.HasFollowRequestFrom(senderID) {
		return nil, model.ErrDuplicateRequest
	}

	if err := s.userRepo.AddFollowRequest(ctx, targetID, senderID); err != nil {
		return nil, fmt.Errorf("failed to add follow request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Push(targetID.Hex(), "new_follow_request", sender.Summary())
	}

	summary := target.Summary()
	return &summary, nil
}

// AcceptFollowRequest consumes a pending request: the requester becomes a
// follower of the accepting user, and the accepting user is added to the
// requester's following set. The reverse edge is NOT created; mutual follow
// still requires the accepter to follow back explicitly.
//
// Accepting a request that does not exist, including one already accepted,
// fails with model.ErrNoFollowRequest.
func (s *FollowService) AcceptFollowRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*model.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if !user.HasFollowRequestFrom(requesterID) {
		return nil, model.ErrNoFollowRequest
	}

	if err := s.userRepo.AcceptRequest(ctx, userID, requesterID); err != nil {
		return nil, fmt.Errorf("failed to accept follow request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Push(requesterID.Hex(), "requestAccepted", user.Summary())
	}

	summary := requester.Summary()
	return &summary, nil
}

// RejectFollowRequest drops a pending request without creating any edge.
func (s *FollowService) RejectFollowRequest(ctx context.Context, userID, requesterID primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.HasFollowRequestFrom(requesterID) {
		return model.ErrNoFollowRequest
	}

	if err := s.userRepo.RemoveFollowRequest(ctx, userID, requesterID); err != nil {
		return fmt.Errorf("failed to reject follow request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Push(requesterID.Hex(), "requestRejected", map[string]string{
			"userId": userID.Hex(),
		})
	}
	return nil
}

// FollowCounts is the response of a follow/unfollow mutation.
type FollowCounts struct {
	FollowersCount int `json:"followersCount"`
	FollowingCount int `json:"followingCount"`
}

// Follow creates both halves of a follow edge directly, bypassing the
// request flow. The two updates are sequential single-document writes.
func (s *FollowService) Follow(ctx context.Context, userID, targetID primitive.ObjectID) (*FollowCounts, error) {
	if userID == targetID {
		return nil, model.ErrSelfReference
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if user.Follows(targetID) {
		return nil, model.ErrAlreadyFollowing
	}

	if err := s.userRepo.AddFollowing(ctx, userID, targetID); err != nil {
		return nil, fmt.Errorf("failed to add following edge: %w", err)
	}
	if err := s.userRepo.AddFollower(ctx, targetID, userID); err != nil {
		return nil, fmt.Errorf("failed to add follower edge: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Broadcast("follow", map[string]string{
			"followerId": userID.Hex(),
			"followedId": targetID.Hex(),
		})
	}

	return &FollowCounts{
		FollowersCount: len(target.Followers) + 1,
		FollowingCount: len(user.Following) + 1,
	}, nil
}

// Unfollow removes both halves of a follow edge. The event goes to every
// connected client, not just the pair: any open chat between the two users
// must be invalidated wherever it is rendered.
func (s *FollowService) Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) (*FollowCounts, error) {
	if userID == targetID {
		return nil, model.ErrSelfReference
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !user.Follows(targetID) {
		return nil, model.ErrNotFollowing
	}

	if err := s.userRepo.RemoveFollowing(ctx, userID, targetID); err != nil {
		return nil, fmt.Errorf("failed to remove following edge: %w", err)
	}
	if err := s.userRepo.RemoveFollower(ctx, targetID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove follower edge: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Broadcast("unfollow", map[string]string{
			"unfollowerId": userID.Hex(),
			"unfollowedId": targetID.Hex(),
		})
	}

	return &FollowCounts{
		FollowersCount: len(target.Followers) - 1,
		FollowingCount: len(user.Following) - 1,
	}, nil
}

// ListUsers returns every other user annotated with the viewer-relative
// mutual follow status, for the chat sidebar.
func (s *FollowService) ListUsers(ctx context.Context, viewerID primitive.ObjectID) ([]model.SidebarUser, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.List(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	result := make([]model.SidebarUser, 0, len(users))
	for _, u := range users {
		result = append(result, model.SidebarUser{
			User:           u,
			IsMutualFollow: viewer.Follows(u.ID) && u.Follows(viewerID),
		})
	}
	return result, nil
}

// ListFollowRequests returns summaries of users with a pending request.
func (s *FollowService) ListFollowRequests(ctx context.Context, userID primitive.ObjectID) ([]model.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetSummaries(ctx, user.FollowRequests)
}

// ListFollowers returns summaries of the user's followers.
func (s *FollowService) ListFollowers(ctx context.Context, userID primitive.ObjectID) ([]model.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetSummaries(ctx, user.Followers)
}

// ListFollowing returns summaries of the users this user follows.
func (s *FollowService) ListFollowing(ctx context.Context, userID primitive.ObjectID) ([]model.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetSummaries(ctx, user.Following)
}
