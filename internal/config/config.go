package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultAPIToken = "dev-token"

// Config holds runtime settings read from the environment
type Config struct {
	DBConnStr   string
	APIToken    string
	HTTPPort    string
	GRPCPort    string
	Stage       string
	LogLevel    string
	CORSOrigins []string
}

// Load reads configuration from the environment. Values in a .env file
// are applied first when present; real environment variables win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		DBConnStr:   dbConnString(),
		APIToken:    getEnv("API_TOKEN", defaultAPIToken),
		HTTPPort:    getEnv("HTTP_PORT", "8081"),
		GRPCPort:    getEnv("GRPC_PORT", "8080"),
		Stage:       getEnv("STAGE", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that ports are numeric and the token is set
func (c *Config) Validate() error {
	for name, port := range map[string]string{"HTTP_PORT": c.HTTPPort, "GRPC_PORT": c.GRPCPort} {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("invalid %s %q", name, port)
		}
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must differ")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("API_TOKEN cannot be empty")
	}
	return nil
}

// HTTPAddr returns the listen address of the REST server
func (c *Config) HTTPAddr() string {
	return ":" + c.HTTPPort
}

// GRPCAddr returns the listen address of the gRPC server
func (c *Config) GRPCAddr() string {
	return ":" + c.GRPCPort
}

// dbConnString prefers DB_CONN_STR and otherwise builds it from the DB_* parts
func dbConnString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "bizplan"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
