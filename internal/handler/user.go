package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatwave/internal/httputil"
	"chatwave/internal/model"
	"chatwave/internal/repository"
	"chatwave/internal/service"
	"chatwave/internal/transport/http/middleware"
)

type UserHandler struct {
	userRepo      repository.UserRepository
	followService *service.FollowService
}

func NewUserHandler(userRepo repository.UserRepository, followService *service.FollowService) *UserHandler {
	return &UserHandler{
		userRepo:      userRepo,
		followService: followService,
	}
}

// List returns every other user with the viewer-relative mutual follow
// status, for the chat sidebar.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	users, err := h.followService.ListUsers(r.Context(), userID)
	if err != nil {
		log.Printf("[UserHandler] List: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[UserHandler] GetByID: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
