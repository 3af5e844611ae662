package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taskhub-app/taskhub-be/internal/api/handlers"
	"github.com/taskhub-app/taskhub-be/internal/auth"
	"github.com/taskhub-app/taskhub-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(tokens *auth.TokenService, userService services.UserServiceProvider, sessionService services.SessionServiceProvider, avatarMaxBytes int64) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	userHandler := handlers.NewUserHandler(userService, sessionService, avatarMaxBytes)
	requireAuth := auth.Middleware(tokens, userService, sessionService)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			// Public endpoints
			r.Post("/", userHandler.SignUp)
			r.Post("/login", userHandler.Login)
			r.Get("/{id}/avatar", userHandler.GetAvatar)

			// Everything below requires a live session token
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", userHandler.Logout)
				r.Post("/logoutAll", userHandler.LogoutAll)
				r.Route("/me", func(r chi.Router) {
					r.Get("/", userHandler.GetMe)
					r.Patch("/", userHandler.UpdateMe)
					r.Delete("/", userHandler.DeleteMe)
					r.Post("/avatar", userHandler.UploadAvatar)
					r.Delete("/avatar", userHandler.DeleteAvatar)
				})
			})
		})
	})

	return r
}
