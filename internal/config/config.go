// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	// DisconnectGrace bounds how long a paused room waits for a
	// reconnect before forfeiting.
	DisconnectGrace time.Duration

	// PollTimeout bounds one long-poll request.
	PollTimeout time.Duration

	// EventBufferSize caps each room's event log.
	EventBufferSize int
}

// Load reads the environment. A missing .env is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            getString("ADDR", ":8080"),
		DisconnectGrace: getSeconds("DISCONNECT_GRACE_SEC", 60),
		PollTimeout:     getSeconds("POLL_TIMEOUT_SEC", 30),
		EventBufferSize: getInt("EVENT_BUFFER_SIZE", 100),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}
