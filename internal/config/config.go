package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the notification service configuration loaded from the
// environment.
type Config struct {
	AppName  string
	LogLevel string
	HTTPPort string

	Neo4jURL      string
	Neo4jUser     string
	Neo4jPassword string

	AWSRegion          string
	IOSPlatformARN     string
	AndroidPlatformARN string

	PushSubject         string
	FollowRequestLocKey string
	DirectFollowLocKey  string
	GroupCreateLocKey   string

	RabbitURL       string
	FanOutQueue     string
	DeadLetterQueue string
	PrefetchCount   int
	WorkerCount     int
	MaxDeliveries   int

	RedisURL       string
	SuppressionTTL time.Duration

	DatabaseURL string
	StatusTable string

	PurgeInterval time.Duration

	ProviderTimeout     time.Duration
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
}

// Load loads configuration and performs basic validation. RabbitMQ, Redis
// and the relational database are optional collaborators; leaving their URLs
// empty disables the corresponding feature.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:  getEnv("APP_NAME", "notification_service"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnv("HTTP_PORT", "8082"),

		Neo4jURL:      getEnv("NEO4J_URL", ""),
		Neo4jUser:     getEnv("NEO4J_USER", ""),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		IOSPlatformARN:     getEnv("SNS_IOS_PLATFORM_APPLICATION_ARN", ""),
		AndroidPlatformARN: getEnv("SNS_ANDROID_PLATFORM_APPLICATION_ARN", ""),

		PushSubject:         getEnv("PUSH_SUBJECT", "CatchU"),
		FollowRequestLocKey: getEnv("FOLLOW_REQUEST_LOC_KEY", "PUSH_FOLLOW_REQUEST"),
		DirectFollowLocKey:  getEnv("DIRECT_FOLLOW_REQUEST_LOC_KEY", "PUSH_DIRECT_FOLLOW"),
		GroupCreateLocKey:   getEnv("GROUP_CREATE_LOC_KEY", "PUSH_GROUP_CREATE"),

		RabbitURL:       getEnv("RABBITMQ_URL", ""),
		FanOutQueue:     getEnv("FANOUT_QUEUE", "fanout.queue"),
		DeadLetterQueue: getEnv("FANOUT_DLQ", "failed.queue"),
		PrefetchCount:   getEnvAsInt("PUSH_PREFETCH", 100),
		WorkerCount:     getEnvAsInt("WORKER_COUNT", 5),
		MaxDeliveries:   getEnvAsInt("MAX_DELIVERIES", 5),

		RedisURL:       getEnv("REDIS_URL", ""),
		SuppressionTTL: getEnvAsDuration("SUPPRESSION_TTL", 24*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		StatusTable: getEnv("STATUS_TABLE", "fanout_runs"),

		PurgeInterval: getEnvAsDuration("PURGE_INTERVAL", 0),

		ProviderTimeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		RetryMaxAttempts:    getEnvAsInt("RETRY_MAX_ATTEMPTS", 4),
		RetryInitialBackoff: getEnvAsDuration("RETRY_INITIAL_BACKOFF", time.Second),
		RetryMaxBackoff:     getEnvAsDuration("RETRY_MAX_BACKOFF", 15*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Neo4jURL == "" {
		missing = append(missing, "NEO4J_URL")
	}
	if c.Neo4jUser == "" {
		missing = append(missing, "NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		missing = append(missing, "NEO4J_PASSWORD")
	}
	if c.IOSPlatformARN == "" {
		missing = append(missing, "SNS_IOS_PLATFORM_APPLICATION_ARN")
	}
	if c.AndroidPlatformARN == "" {
		missing = append(missing, "SNS_ANDROID_PLATFORM_APPLICATION_ARN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func getEnv(key, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func getEnvAsInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s, using default %d: %v", key, def, err)
			return def
		}
		return i
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s, using default %s: %v", key, def, err)
			return def
		}
		return d
	}
	return def
}
