// Package config loads runtime configuration from the environment,
// with an optional .env file and an optional YAML animation tuning
// file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/seven0070/yumiai/anim"
)

// Config holds everything the run and sim commands need.
type Config struct {
	// AgentURL is the duplex channel endpoint.
	AgentURL string
	// FallbackURL is the base URL for the POST /chat fallback.
	FallbackURL string
	// RedisURL enables the transcript recorder when non-empty.
	RedisURL string
	// ScenePath is a YAML scene description; empty uses the built-in
	// stand-in head.
	ScenePath string
	// SessionID identifies the conversation in the transcript.
	SessionID string
	// ListenAddr is the simulator's listen address.
	ListenAddr string
	// AllowedOrigins restricts simulator WebSocket origins.
	AllowedOrigins []string
	// FrameRate is the animation advance rate in frames per second.
	FrameRate int
	// Tuning holds the animation timings.
	Tuning anim.Tuning
}

// Load reads configuration. A .env file in the working directory is
// applied first, best effort.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AgentURL:    getenv("AVATAR_AGENT_URL", "ws://localhost:5000/ws"),
		FallbackURL: getenv("AVATAR_FALLBACK_URL", "http://localhost:5000"),
		RedisURL:    os.Getenv("AVATAR_REDIS_URL"),
		ScenePath:   os.Getenv("AVATAR_SCENE"),
		SessionID:   getenv("AVATAR_SESSION_ID", uuid.New().String()),
		ListenAddr:  getenv("AVATAR_LISTEN", ":5000"),
		FrameRate:   30,
	}

	if v := os.Getenv("AVATAR_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("AVATAR_FRAME_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate < 1 || rate > 240 {
			return nil, fmt.Errorf("invalid AVATAR_FRAME_RATE %q", v)
		}
		cfg.FrameRate = rate
	}

	if path := os.Getenv("AVATAR_TUNING"); path != "" {
		tuning, err := anim.LoadTuning(path)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = tuning
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
