package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Storage
	HighscoreStore   string // "file" or "postgres"
	HighscoresFile   string
	CalibrationStore string // "file" or "redis"
	CalibrationFile  string

	// Game
	TuningFile         string
	TickIntervalMs     int
	ScreenWidth        int
	ScreenHeight       int
	AllowManualPointer bool

	// Pub/sub
	DetectionChannel string
	StateChannel     string

	// Logging
	LogFile  string
	LogLevel string

	// Security
	JWTSecret         string
	OperatorTokenHash string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Storage
		HighscoreStore:   getEnv("HIGHSCORE_STORE", "file"),
		HighscoresFile:   getEnv("HIGHSCORES_FILE", "highscores.json"),
		CalibrationStore: getEnv("CALIBRATION_STORE", "file"),
		CalibrationFile:  getEnv("CALIBRATION_FILE", "calibration.json"),

		// Game
		TuningFile:         getEnv("TUNING_FILE", "tuning.yaml"),
		TickIntervalMs:     getEnvInt("TICK_INTERVAL_MS", 30),
		ScreenWidth:        getEnvInt("SCREEN_WIDTH", 1024),
		ScreenHeight:       getEnvInt("SCREEN_HEIGHT", 768),
		AllowManualPointer: getEnvBool("ALLOW_MANUAL_POINTER", true),

		// Pub/sub
		DetectionChannel: getEnv("DETECTION_CHANNEL", "autokat:detections"),
		StateChannel:     getEnv("STATE_CHANNEL", "autokat:state"),

		// Logging
		LogFile:  getEnv("LOG_FILE", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		OperatorTokenHash: getEnv("OPERATOR_TOKEN_HASH", ""),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
