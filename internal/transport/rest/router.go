package rest

import (
	"compassbot/internal/repository"
	"compassbot/internal/service"
	"compassbot/internal/transport/rest/handler"
	"compassbot/internal/transport/rest/middleware"
	"compassbot/internal/transport/ws"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all dependencies for the router
type Container struct {
	QuizService    *service.QuizService
	AuthService    *service.AuthService
	TelegramClient *service.TelegramClient
	DiscordClient  *service.DiscordClient
	DiscordHandler *handler.DiscordHandler
	Results        repository.ResultRepo
	RegisterSecret string
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	telegramHandler := handler.NewTelegramHandler(c.QuizService, c.TelegramClient)
	authHandler := handler.NewAuthHandler(c.AuthService)
	resultHandler := handler.NewResultHandler(c.Results)
	commandHandler := handler.NewCommandHandler(c.DiscordClient, c.RegisterSecret)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// Platform webhooks. The Discord handler is optional: without a
	// configured public key there is nothing to verify against.
	r.HandleFunc("/telegram", telegramHandler.Webhook).Methods("POST")
	if c.DiscordHandler != nil {
		r.HandleFunc("/discord", c.DiscordHandler.Webhook).Methods("POST")
	}
	r.HandleFunc("/register-discord-commands", commandHandler.Register).Methods("POST")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/feed", wsHandler.Feed).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Admin routes (require admin auth)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/results", resultHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/{id}", resultHandler.GetByID).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
