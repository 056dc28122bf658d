// Package config provides configuration loading for both the overlay
// agent and the sync service, with values resolved from the
// environment (after loading an optional .env file) and falling back
// to built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AgentConfig holds configuration for cmd/overlay-agent.
type AgentConfig struct {
	DataDir            string // base directory for the local SQLite config store
	Port               int    // HTTP port for the view-model API
	LogLevel           string
	DevMode            bool
	SyncServiceURL     string // base URL of the edge sync service
	PerformanceDelayMs int    // inter-request delay for the performance queue
	AutoSyncMinutes    int    // auto-sync interval, default 30
}

// ServiceConfig holds configuration for cmd/sync-service.
type ServiceConfig struct {
	Port            int
	LogLevel        string
	DevMode         bool
	DataDir         string
	JWTSecret       string
	CORSOrigins     []string
	MaxPayloadBytes int
	AccessTTLMin    int // access token lifetime, minutes
	RefreshTTLDays  int // refresh token lifetime, days
}

// defaultCORSOrigins lists the two host origins this overlay runs against.
var defaultCORSOrigins = []string{
	"https://app.sg.endowus.com",
	"https://secure.fundsupermart.com",
}

// LoadAgent reads overlay-agent configuration from the environment (and
// an optional .env file, if present).
func LoadAgent(dataDirOverride ...string) (*AgentConfig, error) {
	_ = godotenv.Load()

	dataDir, err := resolveDataDir("OVERLAY_DATA_DIR", "./data/agent", dataDirOverride...)
	if err != nil {
		return nil, err
	}

	cfg := &AgentConfig{
		DataDir:            dataDir,
		Port:               getEnvAsInt("AGENT_PORT", 8787),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		SyncServiceURL:     getEnv("SYNC_SERVICE_URL", "http://localhost:8080"),
		PerformanceDelayMs: getEnvAsInt("PERFORMANCE_REQUEST_DELAY_MS", 750),
		AutoSyncMinutes:    getEnvAsInt("AUTO_SYNC_INTERVAL_MINUTES", 30),
	}
	return cfg, nil
}

// LoadService reads sync-service configuration from the environment.
func LoadService(dataDirOverride ...string) (*ServiceConfig, error) {
	_ = godotenv.Load()

	dataDir, err := resolveDataDir("SYNC_DATA_DIR", "./data/service", dataDirOverride...)
	if err != nil {
		return nil, err
	}

	secret := getEnv("JWT_SECRET", "")

	cfg := &ServiceConfig{
		Port:            getEnvAsInt("SYNC_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DataDir:         dataDir,
		JWTSecret:       secret,
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", defaultCORSOrigins),
		MaxPayloadBytes: getEnvAsInt("MAX_PAYLOAD_SIZE", 10240),
		AccessTTLMin:    getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTTLDays:  getEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields for the sync service. A missing JWT
// secret is fatal in production (DevMode off); in dev mode an
// insecure fallback is substituted so the service is runnable without
// extra setup.
func (c *ServiceConfig) Validate() error {
	if c.JWTSecret == "" {
		if c.DevMode {
			c.JWTSecret = "dev-insecure-secret-do-not-use-in-production"
			return nil
		}
		return fmt.Errorf("JWT_SECRET is required outside DEV_MODE")
	}
	return nil
}

func resolveDataDir(envVar, fallback string, override ...string) (string, error) {
	var dataDir string
	if len(override) > 0 && override[0] != "" {
		dataDir = override[0]
	} else {
		dataDir = getEnv(envVar, fallback)
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return absDataDir, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
