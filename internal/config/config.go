package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Store selection. When UseMemoryStore is true the API runs entirely on
	// in-process stores (no AWS, no Redis persistence survives restarts).
	UseMemoryStore bool
	UseMemoryQueue bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	PatientsTable     string
	AppointmentsTable string
	IngestQueueURL    string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Seed clinic account, created on boot when all three are set.
	ClinicID       string
	ClinicName     string
	ClinicUsername string
	ClinicPassword string

	// Email notifications for chatbot-ingested appointments.
	NotifyFromEmail string
	NotifyFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),

		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		PatientsTable:     getEnv("PATIENTS_TABLE", "patients"),
		AppointmentsTable: getEnv("APPOINTMENTS_TABLE", "appointments"),
		IngestQueueURL:    getEnv("INGEST_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ClinicID:       getEnv("CLINIC_ID", ""),
		ClinicName:     getEnv("CLINIC_NAME", ""),
		ClinicUsername: getEnv("CLINIC_USERNAME", ""),
		ClinicPassword: getEnv("CLINIC_PASSWORD", ""),

		NotifyFromEmail: getEnv("NOTIFY_FROM_EMAIL", ""),
		NotifyFromName:  getEnv("NOTIFY_FROM_NAME", "Clinic CRM"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming blanks.
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
