package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken     string
	AdminID      int64
	DatabasePath string
	LocalePath   string

	// GraceWindow is how long after a booking's scheduled time it stays
	// pending before the sweeper completes it and asks for a rating.
	GraceWindow   time.Duration
	SweepInterval time.Duration
	SendTimeout   time.Duration
}

func Load() *Config {
	return &Config{
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminID:       getEnvAsInt64("ADMIN_CHAT_ID", 0),
		DatabasePath:  getEnv("DATABASE_PATH", "booking.db"),
		LocalePath:    getEnv("LOCALE_PATH", "locales/text.yaml"),
		GraceWindow:   getEnvAsMinutes("GRACE_WINDOW_MINUTES", 60),
		SweepInterval: getEnvAsMinutes("SWEEP_INTERVAL_MINUTES", 5),
		SendTimeout:   getEnvAsSeconds("SEND_TIMEOUT_SECONDS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if num, err := strconv.ParseInt(value, 10, 64); err == nil {
			return num
		}
	}
	return defaultValue
}

func getEnvAsMinutes(key string, defaultValue int64) time.Duration {
	return time.Duration(getEnvAsInt64(key, defaultValue)) * time.Minute
}

func getEnvAsSeconds(key string, defaultValue int64) time.Duration {
	return time.Duration(getEnvAsInt64(key, defaultValue)) * time.Second
}
