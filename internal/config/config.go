package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string

	// Station layout overrides; defaults come from station.DefaultRegistry.
	StationRooms          map[string][]string
	StationServiceMinutes map[string]int

	BoardRefreshInterval time.Duration

	RateLimitPerMinute      int
	RateLimitBurst          int
	TokenRateLimitPerMinute int
	TokenRateLimitBurst     int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:                    port,
		DatabaseURL:             os.Getenv("DB_DSN"),
		StationRooms:            readJSONMapList("STATION_ROOMS"),
		StationServiceMinutes:   readJSONMapInt("STATION_SERVICE_MINUTES"),
		BoardRefreshInterval:    readDurationSeconds("BOARD_REFRESH_SECONDS", 10),
		RateLimitPerMinute:      readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:          readInt("RATE_LIMIT_BURST", 30),
		TokenRateLimitPerMinute: readInt("TOKEN_RATE_LIMIT_PER_MIN", 60),
		TokenRateLimitBurst:     readInt("TOKEN_RATE_LIMIT_BURST", 10),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readJSONMapList(key string) map[string][]string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var value map[string][]string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		log.Printf("config %s: invalid JSON, using defaults: %v", key, err)
		return nil
	}
	return value
}

func readJSONMapInt(key string) map[string]int {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var value map[string]int
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		log.Printf("config %s: invalid JSON, using defaults: %v", key, err)
		return nil
	}
	return value
}
