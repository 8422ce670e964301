package handler

import (
	"encoding/json"
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

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	peerID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	messages, err := h.messageService.GetMessages(r.Context(), userID, peerID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotMutualFollow):
			httputil.WriteForbidden(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[MessageHandler] GetMessages: %v", err)
			httputil.WriteInternalError(w, "Failed to fetch messages")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	receiverID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	msg, err := h.messageService.SendMessage(r.Context(), userID, receiverID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotMutualFollow):
			httputil.WriteForbidden(w, err.Error())
		case errors.Is(err, model.ErrEmptyMessage):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrUploadFailed):
			log.Printf("[MessageHandler] Send: %v", err)
			httputil.WriteDependencyError(w, "Failed to upload image")
		default:
			log.Printf("[MessageHandler] Send: %v", err)
			httputil.WriteInternalError(w, "Failed to send message")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	messageID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid message ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	msg, updated, err := h.messageService.UpdateMessageStatus(r.Context(), messageID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidStatus):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrMessageNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[MessageHandler] UpdateStatus: %v", err)
			httputil.WriteInternalError(w, "Failed to update message status")
		}
		return
	}

	if !updated {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "No update needed"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Status updated",
		"status":  msg.Status,
	})
}

func (h *MessageHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req struct {
		SenderID string `json:"senderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	senderID, err := primitive.ObjectIDFromHex(req.SenderID)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid sender ID")
		return
	}

	count, err := h.messageService.MarkAllRead(r.Context(), userID, senderID)
	if err != nil {
		log.Printf("[MessageHandler] MarkAllRead: %v", err)
		httputil.WriteInternalError(w, "Failed to mark messages read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"updatedCount": count})
}
