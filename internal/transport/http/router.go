package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"promptgram/internal/handler"
	"promptgram/internal/httputil"
	authmw "promptgram/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	FollowHandler *handler.FollowHandler
	ImageHandler  *handler.ImageHandler
	JWTSecret     string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Public reads with optional authentication: the gallery personalizes
	// is_liked flags when a viewer is present.
	r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/gallery", cfg.ImageHandler.Gallery)
	r.Get("/images/{id}", cfg.ImageHandler.GetImage)

	r.Route("/users", func(r chi.Router) {
		r.Get("/{id}", cfg.UserHandler.GetUser)
		r.Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
		r.Get("/{id}/following", cfg.FollowHandler.GetFollowing)
		r.Get("/{id}/images", cfg.ImageHandler.GetUserImages)
		r.Get("/{id}/remixes", cfg.ImageHandler.GetUserRemixes)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/me", cfg.UserHandler.Me)
		r.Get("/me/profile", cfg.UserHandler.Profile)
		r.Post("/users/me/avatar", cfg.UserHandler.UploadAvatar)

		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/change-password", cfg.AuthHandler.ChangePassword)
		r.Delete("/auth/account", cfg.AuthHandler.DeleteAccount)

		r.Post("/follows/toggle", cfg.FollowHandler.Toggle)
		r.Post("/follows/check", cfg.FollowHandler.Check)

		r.Post("/images/generate", cfg.ImageHandler.Generate)
		r.Post("/images/remix", cfg.ImageHandler.Remix)
		r.Post("/images/{id}/like", cfg.ImageHandler.ToggleLike)
		r.Post("/images/{id}/remix-count", cfg.ImageHandler.IncrementRemixCount)
	})

	return r
}
