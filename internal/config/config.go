// Package config provides configuration for the server and the CLI.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// LLM settings
	Mode       string
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// arXiv paper search
	ArxivBaseURL       string
	ArxivTimeout       time.Duration
	ArxivMaxResults    int
	ArxivDownloadCount int
	ArxivStorageDir    string

	// Request processing
	StepDelay      time.Duration
	RequestTimeout time.Duration
	HistoryLimit   int

	// WebSocket watchers
	WSWriteWait      time.Duration
	WSPongWait       time.Duration
	WSPingPeriod     time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel string
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	pongWait := time.Duration(getEnvInt("WS_PONG_WAIT_MS", 60000)) * time.Millisecond
	cfg := &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:        getEnv("DATABASE_URL", "file:scholar.db?cache=shared&mode=rwc"),
		Mode:               getEnv("SCHOLAR_MODE", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:         time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
		ArxivBaseURL:       getEnv("ARXIV_BASE_URL", "http://export.arxiv.org"),
		ArxivTimeout:       time.Duration(getEnvInt("ARXIV_TIMEOUT_MS", 30000)) * time.Millisecond,
		ArxivMaxResults:    getEnvInt("ARXIV_MAX_RESULTS", 10),
		ArxivDownloadCount: getEnvInt("ARXIV_DOWNLOAD_COUNT", 3),
		ArxivStorageDir:    getEnv("ARXIV_STORAGE_DIR", "papers"),
		StepDelay:          time.Duration(getEnvInt("STEP_DELAY_MS", 200)) * time.Millisecond,
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 300000)) * time.Millisecond,
		HistoryLimit:       getEnvInt("HISTORY_LIMIT", 10),
		WSWriteWait:        time.Duration(getEnvInt("WS_WRITE_WAIT_MS", 10000)) * time.Millisecond,
		WSPongWait:         pongWait,
		WSPingPeriod:       time.Duration(getEnvInt("WS_PING_PERIOD_MS", int(pongWait.Milliseconds()*9/10))) * time.Millisecond,
		WSMaxMessageSize:   int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 4096)),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
