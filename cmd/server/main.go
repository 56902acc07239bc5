package main

import (
	"compassbot/internal/ai"
	"compassbot/internal/cache"
	"compassbot/internal/config"
	"compassbot/internal/repository"
	"compassbot/internal/service"
	"compassbot/internal/transport/rest"
	"compassbot/internal/transport/rest/handler"
	"compassbot/internal/transport/ws"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}

	ctx := context.Background()
	cfg := config.Load()

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Provider: %s", aiConfig.Provider)
	log.Printf("  Model:    %s", aiConfig.Model)
	if aiConfig.IsEnabled() {
		log.Println("  API Key:  configured ✓")
	} else {
		log.Println("  API Key:  NOT SET")
	}

	generator, err := ai.NewGenerator(aiConfig)
	if err != nil {
		log.Fatal("Failed to create generation client:", err)
	}

	// Session store: Redis when configured, in-memory otherwise.
	var store cache.SessionStore
	if cfg.RedisURI != "" {
		redisAddr := strings.TrimPrefix(cfg.RedisURI, "redis://")
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to ping Redis:", err)
		}
		log.Println("Connected to Redis")
		store = cache.NewSessionStore(rdb)
	} else {
		log.Println("REDIS_URI not set, sessions held in memory")
		store = cache.NewMemoryStore()
	}

	// Result archive: optional MongoDB.
	var results repository.ResultRepo
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer mongoClient.Disconnect(ctx)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			log.Fatal("Failed to ping MongoDB:", err)
		}
		log.Println("Connected to MongoDB")

		results = repository.NewResultRepo(mongoClient.Database("compassbot"))
	} else {
		log.Println("MONGO_URI not set, completed results are not archived")
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize services
	authSvc := service.NewAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret)
	quizSvc := service.NewQuizService(store, generator, cfg.QuizQuestions,
		time.Duration(cfg.SessionTTLSeconds)*time.Second)
	if results != nil {
		quizSvc.SetResultRepo(results)
	}
	quizSvc.SetBroadcaster(wsHub)

	// Platform clients
	telegramClient := service.NewTelegramClient(cfg.TelegramAPIBase, cfg.TelegramBotToken)
	discordClient := service.NewDiscordClient(cfg.DiscordAPIBase, cfg.DiscordBotToken, cfg.DiscordApplicationID)

	var discordHandler *handler.DiscordHandler
	if cfg.DiscordPublicKey != "" {
		discordHandler, err = handler.NewDiscordHandler(quizSvc, discordClient, cfg.DiscordPublicKey, cfg.DiscordApplicationID)
		if err != nil {
			log.Fatal("Discord setup failed:", err)
		}
	} else {
		log.Println("DISCORD_PUBLIC_KEY not set, Discord webhook disabled")
	}

	// Create router with container
	container := &rest.Container{
		QuizService:    quizSvc,
		AuthService:    authSvc,
		TelegramClient: telegramClient,
		DiscordClient:  discordClient,
		DiscordHandler: discordHandler,
		Results:        results,
		RegisterSecret: cfg.RegisterSecret,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /telegram")
		log.Println("  POST /discord")
		log.Println("  POST /register-discord-commands")
		log.Println("  POST /v1/auth/login")
		log.Println("  GET  /v1/results")
		log.Println("  WS   /v1/ws/feed")
		log.Println("  GET  /health")
		log.Println("  GET  /metrics")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
