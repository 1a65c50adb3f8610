package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Backend endpoints
	API struct {
		BaseURL   string
		SocketURL string
		Timeout   time.Duration
	}

	// Chat behavior
	Chat struct {
		HistoryLimit   int
		SendRate       float64
		SendBurst      int
		DefaultReturn  string
		TranscribeType string
		ModelName      string
	}

	// Cache settings for catalog reads (characters, plans, credit packs)
	Cache struct {
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Circuit breaker for REST calls
	Breaker struct {
		FailureThreshold int
		SuccessThreshold int
		RetryTimeout     time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Local session state (token file, conversation snapshot, voice payloads)
	State struct {
		Dir string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		instance.API.BaseURL = getEnvString("COMPANION_API_URL", "http://localhost:4000/api")
		instance.API.SocketURL = getEnvString("COMPANION_SOCKET_URL", "ws://localhost:4000/socket/websocket")
		instance.API.Timeout = getEnvDuration("COMPANION_API_TIMEOUT", 60*time.Second)

		instance.Chat.HistoryLimit = getEnvInt("CHAT_HISTORY_LIMIT", 70)
		instance.Chat.SendRate = float64(getEnvInt("CHAT_SEND_RATE", 1))
		instance.Chat.SendBurst = getEnvInt("CHAT_SEND_BURST", 3)
		instance.Chat.DefaultReturn = getEnvString("CHAT_DEFAULT_RETURN", "text")
		instance.Chat.TranscribeType = getEnvString("TRANSCRIBE_DATA_TYPE", "audio")
		instance.Chat.ModelName = getEnvString("TRANSCRIBE_MODEL_NAME", "whisper-1")

		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 500)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

		instance.Breaker.FailureThreshold = getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)
		instance.Breaker.SuccessThreshold = getEnvInt("BREAKER_SUCCESS_THRESHOLD", 2)
		instance.Breaker.RetryTimeout = getEnvDuration("BREAKER_RETRY_TIMEOUT", 30*time.Second)

		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "text")

		instance.State.Dir = getEnvString("COMPANION_STATE_DIR", defaultStateDir())
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".companion"
	}
	return filepath.Join(home, ".companion")
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
