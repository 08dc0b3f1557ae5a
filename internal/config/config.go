package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL    string
	Neo4jURI       string
	Neo4jUser      string
	Neo4jPassword  string
	WorkerCount    int
	Suffix         string
	Language       string
	DecryptCommand string
	DecryptTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/blang_tool?sslmode=disable"),
		Neo4jURI:       getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:      getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:  getEnv("NEO4J_PASSWORD", "password"),
		WorkerCount:    getEnvInt("WORKER_COUNT", 4),
		Suffix:         getEnv("BLANG_SUFFIX", ".blang"),
		Language:       getEnv("BLANG_LANGUAGE", "english"),
		DecryptCommand: getEnv("BLANG_DECRYPT_CMD", ""),
		DecryptTimeout: time.Duration(getEnvInt("BLANG_DECRYPT_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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
