package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr       string // API bind address, e.g., "127.0.0.1:8080" or ":8080" (Docker)
	LogDir     string // logs directory
	RateRPM    int    // per-IP requests per minute; <= 0 disables throttling
	RateBurst  int    // bucket size for short spikes
	WebhookURL string // failure webhook; empty disables notifications
}

func FromEnv() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	// Throttling is off unless configured.
	rpm := 0
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rpm = n
		}
	}
	burst := 30
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}

	return Config{
		Addr:       addr,
		LogDir:     logDir,
		RateRPM:    rpm,
		RateBurst:  burst,
		WebhookURL: os.Getenv("WEBHOOK_URL"),
	}
}
