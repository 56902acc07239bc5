package config

import "os"

// Config holds the server and platform settings, all sourced from the
// environment.
type Config struct {
	Port string

	// Telegram
	TelegramBotToken string
	TelegramAPIBase  string

	// Discord
	DiscordBotToken      string
	DiscordPublicKey     string
	DiscordApplicationID string
	DiscordAPIBase       string

	// Shared secret gating the command-registration endpoint.
	RegisterSecret string

	// Stores
	RedisURI string
	MongoURI string

	// Quiz behavior
	QuizQuestions     int
	SessionTTLSeconds int

	// Admin API
	AdminUsername string
	AdminPassword string
	JWTSecret     string
}

// Load reads the configuration from the environment, with defaults for
// everything that has a safe one.
func Load() *Config {
	return &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAPIBase:      getEnvOrDefault("TELEGRAM_API_BASE", "https://api.telegram.org"),
		DiscordBotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordPublicKey:     os.Getenv("DISCORD_PUBLIC_KEY"),
		DiscordApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),
		DiscordAPIBase:       getEnvOrDefault("DISCORD_API_BASE", "https://discord.com/api/v10"),
		RegisterSecret:       os.Getenv("REGISTER_SECRET"),
		RedisURI:             os.Getenv("REDIS_URI"),
		MongoURI:             os.Getenv("MONGO_URI"),
		QuizQuestions:        getEnvOrDefaultInt("QUIZ_QUESTIONS", 10),
		SessionTTLSeconds:    getEnvOrDefaultInt("SESSION_TTL_SECONDS", 3600),
		AdminUsername:        getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:            getEnvOrDefault("JWT_SECRET", "change-me-in-production"),
	}
}
