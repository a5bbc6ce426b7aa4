package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultBatchSize bounds a single bulk insert for jurisdictions, years,
	// authorities and properties
	DefaultBatchSize = 1000
	// DefaultValueBatchSize bounds a single bulk insert of value rows
	DefaultValueBatchSize = 10000
)

type Config struct {
	DBPath       string
	Environment  string
	ResourcesDir string
	// Adapters lists the jurisdiction slugs to register, in population order
	Adapters       []string
	BatchSize      int
	ValueBatchSize int
	// Logging
	LogLevel string
	LogDir   string
	LogJSON  bool
	// Cloudflare R2 / S3 resource bucket
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Prefix          string
	// Scheduled refresh
	RefreshCron     string
	RefreshTimezone string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBPath:            getEnv("DB_PATH", "db/pi_monitor.db"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		ResourcesDir:      getEnv("RESOURCES_DIR", "resources"),
		Adapters:          splitList(getEnv("PI_ADAPTERS", "foisa,cabinetfoi")),
		BatchSize:         getEnvInt("BATCH_SIZE", DefaultBatchSize),
		ValueBatchSize:    getEnvInt("VALUE_BATCH_SIZE", DefaultValueBatchSize),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogDir:            getEnv("LOG_DIR", ""),
		LogJSON:           getEnvBool("LOG_JSON", false),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Prefix:          getEnv("R2_PREFIX", ""),
		RefreshCron:       getEnv("REFRESH_CRON", "0 3 * * *"),
		RefreshTimezone:   getEnv("REFRESH_TIMEZONE", "Europe/London"),
	}
}

// Validate rejects settings the population pipeline cannot run with
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive (current: %d)", c.BatchSize)
	}
	if c.ValueBatchSize <= 0 {
		return fmt.Errorf("VALUE_BATCH_SIZE must be positive (current: %d)", c.ValueBatchSize)
	}
	if len(c.Adapters) == 0 {
		return fmt.Errorf("PI_ADAPTERS must name at least one adapter")
	}
	return nil
}

// RemoteResourcesConfigured reports whether a resource bucket can be used
func (c *Config) RemoteResourcesConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("[WARNING] %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
