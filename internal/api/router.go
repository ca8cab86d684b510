package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dwelr/minevault/internal/api/handlers"
	"github.com/dwelr/minevault/internal/auth"
	"github.com/dwelr/minevault/internal/services"
	"github.com/dwelr/minevault/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, backupService services.BackupServiceProvider, scheduleService services.ScheduleServiceProvider, eventService services.EventServiceProvider, userService services.UserServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	backupHandler := handlers.NewBackupHandler(backupService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	eventHandler := handlers.NewEventHandler(eventService)
	userHandler := handlers.NewUserHandler(userService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connection endpoint
		r.Get("/ws", wsHandler.Serve)

		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.With(auth.JWTMiddleware()).Get("/me", userHandler.GetMe)
		})

		// Everything below requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Route("/backups", func(r chi.Router) {
				r.Get("/", backupHandler.GetAll)
				r.Post("/", backupHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", backupHandler.Get)
					r.Delete("/", backupHandler.Delete)
				})
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", scheduleHandler.GetAll)
				r.Post("/", scheduleHandler.Create)
				r.Route("/{scheduleId}", func(r chi.Router) {
					r.Get("/", scheduleHandler.Get)
					r.Put("/", scheduleHandler.Update)
					r.Delete("/", scheduleHandler.Delete)
				})
			})

			r.Get("/events", eventHandler.GetRecent)

			r.Post("/users/{id}/password", userHandler.ChangePassword)
		})
	})

	return r
}
