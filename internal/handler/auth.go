package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chatwave/internal/httputil"
	"chatwave/internal/model"
	"chatwave/internal/service"
	"chatwave/internal/transport/http/middleware"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.TokenMaxAge().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, err.Error())
		default:
			log.Printf("[AuthHandler] Signup: %v", err)
			httputil.WriteInternalError(w, "Failed to create account")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully. Please verify your email.",
		"email":   user.Email,
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrOTPNotFound), errors.Is(err, model.ErrOTPMismatch):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[AuthHandler] VerifyOTP: %v", err)
			httputil.WriteInternalError(w, "Failed to verify email")
		}
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("[AuthHandler] VerifyOTP token: %v", err)
		httputil.WriteInternalError(w, "Failed to verify email")
		return
	}
	h.setSessionCookie(w, token)

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.authService.ResendOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrEmailAlreadyVerified):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[AuthHandler] ResendOTP: %v", err)
			httputil.WriteInternalError(w, "Failed to resend OTP")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP resent successfully"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[AuthHandler] ResetPassword: %v", err)
			httputil.WriteInternalError(w, "Failed to reset password")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		log.Printf("[AuthHandler] Login: %v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("[AuthHandler] Login token: %v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}
	h.setSessionCookie(w, token)

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Check returns the authenticated user's profile.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteUnauthorized(w, "User not found")
			return
		}
		log.Printf("[AuthHandler] Check: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUploadFailed):
			log.Printf("[AuthHandler] UpdateProfile: %v", err)
			httputil.WriteDependencyError(w, "Failed to upload profile picture")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[AuthHandler] UpdateProfile: %v", err)
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[AuthHandler] DeleteAccount: %v", err)
		httputil.WriteInternalError(w, "Failed to delete account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}
