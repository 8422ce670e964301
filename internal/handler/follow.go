package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatwave/internal/httputil"
	"chatwave/internal/model"
	"chatwave/internal/service"
	"chatwave/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// writeGraphError maps the follow workflow's error taxonomy onto the HTTP
// boundary. Conflicts (self-reference, duplicate request, edge state) are
// 400s with a CONFLICT code, matching the API contract.
func writeGraphError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, model.ErrSelfReference),
		errors.Is(err, model.ErrAlreadyFollowing),
		errors.Is(err, model.ErrNotFollowing),
		errors.Is(err, model.ErrDuplicateRequest),
		errors.Is(err, model.ErrNoFollowRequest):
		httputil.WriteError(w, http.StatusBadRequest, httputil.ErrCodeConflict, err.Error())
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, err.Error())
	default:
		log.Printf("[FollowHandler] %s: %v", operation, err)
		httputil.WriteInternalError(w, "Failed to "+operation)
	}
}

func (h *FollowHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	receiver, err := h.followService.SendFollowRequest(r.Context(), userID, targetID)
	if err != nil {
		writeGraphError(w, "send follow request", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Follow request sent successfully",
		"receiver": receiver,
	})
}

func (h *FollowHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	requesterID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	follower, err := h.followService.AcceptFollowRequest(r.Context(), userID, requesterID)
	if err != nil {
		writeGraphError(w, "accept follow request", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Follow request accepted",
		"follower": follower,
	})
}

func (h *FollowHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	requesterID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	if err := h.followService.RejectFollowRequest(r.Context(), userID, requesterID); err != nil {
		writeGraphError(w, "reject follow request", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Follow request rejected",
	})
}

func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	counts, err := h.followService.Follow(r.Context(), userID, targetID)
	if err != nil {
		writeGraphError(w, "follow user", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":        "Followed successfully",
		"followersCount": counts.FollowersCount,
		"followingCount": counts.FollowingCount,
	})
}

func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	counts, err := h.followService.Unfollow(r.Context(), userID, targetID)
	if err != nil {
		writeGraphError(w, "unfollow user", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":        "Unfollowed successfully",
		"followersCount": counts.FollowersCount,
		"followingCount": counts.FollowingCount,
	})
}

func (h *FollowHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	requests, err := h.followService.ListFollowRequests(r.Context(), userID)
	if err != nil {
		writeGraphError(w, "fetch follow requests", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, requests)
}

func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	followers, err := h.followService.ListFollowers(r.Context(), targetID)
	if err != nil {
		writeGraphError(w, "fetch followers", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, followers)
}

func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	following, err := h.followService.ListFollowing(r.Context(), targetID)
	if err != nil {
		writeGraphError(w, "fetch following", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, following)
}
