package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/monkichi27/number-guessing-game/internal/rooms"
)

type Config struct {
	Port          string
	DatabaseURL   string
	LogLevel      string
	LogFormat     string // "json" or "console"
	PublicURL     string
	GracePeriod   int // seconds
	StartDelayMS  int
	SweepInterval int // minutes
}

// Load reads the environment, after an optional .env file in the working
// directory.
func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		PublicURL:     os.Getenv("PUBLIC_URL"),
		GracePeriod:   getEnvInt("GRACE_PERIOD", 30),
		StartDelayMS:  getEnvInt("START_DELAY_MS", 500),
		SweepInterval: getEnvInt("SWEEP_INTERVAL", 10),
	}
	return cfg
}

// Rooms converts the timing settings into the room package's config.
func (c Config) Rooms() rooms.Config {
	rc := rooms.DefaultConfig()
	if c.GracePeriod > 0 {
		rc.GracePeriod = time.Duration(c.GracePeriod) * time.Second
	}
	if c.StartDelayMS >= 0 {
		rc.StartDelay = time.Duration(c.StartDelayMS) * time.Millisecond
	}
	if c.SweepInterval > 0 {
		rc.SweepInterval = time.Duration(c.SweepInterval) * time.Minute
	}
	return rc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
