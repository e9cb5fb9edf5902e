package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Every field comes from the
// environment so main stays lean.
type Server struct {
	Addr string

	// PostgresURL selects the durable store; empty means in-memory.
	PostgresURL string
	// RedisURL enables shared session revocation; empty means in-process.
	RedisURL string

	// BlobRoot is the directory payment screenshots are written under.
	BlobRoot string

	AdminPassword  string
	ViewerPassword string
	JWTSigningKey  string
	SessionTTL     time.Duration

	// KafkaBrokers enables the audit event sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:           getenv("TECHNOREG_ADDR", ":8080"),
		PostgresURL:    os.Getenv("TECHNOREG_POSTGRES_URL"),
		RedisURL:       os.Getenv("TECHNOREG_REDIS_URL"),
		BlobRoot:       getenv("TECHNOREG_BLOB_ROOT", "data/uploads"),
		AdminPassword:  os.Getenv("TECHNOREG_ADMIN_PASSWORD"),
		ViewerPassword: os.Getenv("TECHNOREG_VIEWER_PASSWORD"),
		JWTSigningKey:  getenv("TECHNOREG_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:     12 * time.Hour,
		AuditTopic:     getenv("TECHNOREG_AUDIT_TOPIC", "technoreg.audit"),
	}

	if ttl := os.Getenv("TECHNOREG_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if brokers := os.Getenv("TECHNOREG_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
