package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransitionPermissive = "permissive"
	TransitionStrict     = "strict"

	defaultLockTTL     = 5 * time.Second
	defaultEventsTopic = "bookheaven.orders"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// InternalKey lets trusted services bypass the general rate limit tier.
	InternalKey string

	KafkaBrokers     []string
	OrderEventsTopic string

	RedisAddr string
	LockTTL   time.Duration

	// TransitionPolicy is TransitionPermissive or TransitionStrict.
	TransitionPolicy string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:           os.Getenv("DB_HOST"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		DBPort:           os.Getenv("DB_PORT"),
		AppPort:          os.Getenv("APP_PORT"),
		AppEnv:           os.Getenv("APP_ENV"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		InternalKey:      os.Getenv("INTERNAL_SECRET_KEY"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: os.Getenv("ORDER_EVENTS_TOPIC"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		LockTTL:          defaultLockTTL,
		TransitionPolicy: strings.ToLower(os.Getenv("ORDER_TRANSITION_POLICY")),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.OrderEventsTopic == "" {
		cfg.OrderEventsTopic = defaultEventsTopic
	}
	if raw := os.Getenv("ORDER_LOCK_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.LockTTL = d
		} else {
			log.Printf("invalid ORDER_LOCK_TTL %q, using %s", raw, defaultLockTTL)
		}
	}
	if cfg.TransitionPolicy != TransitionStrict {
		cfg.TransitionPolicy = TransitionPermissive
	}

	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
