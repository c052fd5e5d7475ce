package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hugh/taskboard/internal/api/handlers"
	"github.com/hugh/taskboard/internal/api/middleware"
	"github.com/hugh/taskboard/internal/auth"
	"github.com/hugh/taskboard/internal/notify"
	"github.com/hugh/taskboard/internal/relay"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Google         *auth.GoogleProvider
	Notifier       notify.Notifier
	Hub            *relay.Hub
	AsynqClient    *asynq.Client
	AppBaseURL     string   // Front-end base URL for OAuth redirects
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Google, cfg.AppBaseURL)
	teamHandler := handlers.NewTeamHandler(cfg.DB, cfg.Notifier, cfg.AsynqClient, cfg.Logger)
	projectHandler := handlers.NewProjectHandler(cfg.DB)
	taskHandler := handlers.NewTaskHandler(cfg.DB)
	commentHandler := handlers.NewCommentHandler(cfg.DB)
	invitationHandler := handlers.NewInvitationHandler(cfg.DB, cfg.Notifier, cfg.AsynqClient, cfg.Logger)
	wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Board relay; the auth middleware accepts a token query parameter
	// because browsers cannot set headers on a websocket dial
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService))
		r.Get("/ws", wsHandler.Serve)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/google", authHandler.GoogleLogin)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)

			// Teams endpoints
			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teamHandler.List)
				r.Post("/", teamHandler.Create)
				r.Get("/{id}", teamHandler.Get)
				r.Put("/{id}", teamHandler.Update)
			})

			// Projects endpoints
			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
			})

			// Tasks endpoints
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", taskHandler.Create)
				r.Put("/{id}", taskHandler.Update)
				r.Get("/{id}/comments", commentHandler.List)
				r.Post("/{id}/comments", commentHandler.Create)
			})

			// Invitations endpoints
			r.Route("/invitations", func(r chi.Router) {
				r.Get("/", invitationHandler.List)
				r.Post("/", invitationHandler.Create)
				r.Post("/{token}", invitationHandler.Accept)
			})
		})
	})

	return &Router{r}
}
