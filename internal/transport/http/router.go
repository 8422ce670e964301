package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatwave/internal/handler"
	"chatwave/internal/httputil"
	authmw "chatwave/internal/transport/http/middleware"
	"chatwave/internal/ws"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	FollowHandler  *handler.FollowHandler
	MessageHandler *handler.MessageHandler
	Hub            *ws.Hub
	JWTSecret      string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Real-time channel; clients identify themselves with a user_connected
	// event after the upgrade.
	r.Get("/ws", ws.ServeWS(cfg.Hub))

	// Public routes - no authentication required
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/verify-otp", cfg.AuthHandler.VerifyOTP)
		r.Post("/resend-otp", cfg.AuthHandler.ResendOTP)
		r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)

		// Protected auth actions
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
			r.Get("/check", cfg.AuthHandler.Check)
			r.Put("/update-profile", cfg.AuthHandler.UpdateProfile)
		})
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.List)
			r.Get("/requests", cfg.FollowHandler.GetRequests)
			r.Get("/followers/{id}", cfg.FollowHandler.GetFollowers)
			r.Get("/following/{id}", cfg.FollowHandler.GetFollowing)
			r.Get("/{id}", cfg.UserHandler.GetByID)

			r.Post("/request/{id}", cfg.FollowHandler.SendRequest)
			r.Post("/requests/{id}/accept", cfg.FollowHandler.AcceptRequest)
			r.Post("/requests/{id}/reject", cfg.FollowHandler.RejectRequest)
			r.Post("/follow/{id}", cfg.FollowHandler.Follow)
			r.Post("/unfollow/{id}", cfg.FollowHandler.Unfollow)

			r.Delete("/delete", cfg.AuthHandler.DeleteAccount)
		})

		r.Route("/api/messages", func(r chi.Router) {
			r.Get("/users", cfg.UserHandler.List)
			r.Get("/{id}", cfg.MessageHandler.GetMessages)
			r.Post("/send/{id}", cfg.MessageHandler.Send)
			r.Put("/{id}/status", cfg.MessageHandler.UpdateStatus)
			r.Put("/read-all", cfg.MessageHandler.MarkAllRead)
		})
	})

	return r
}
