// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string // payments-service

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// Supabase project (auth + subscription records)
	SupabaseURL     string
	SupabaseAnonKey string
	// JWKS endpoint for access-token verification; derived from SupabaseURL when empty.
	SupabaseJWKSURL string
	JWTClockSkew    time.Duration

	// Storefront client helpers
	CatalogFallbackPath string

	// Redis & Postgres (both optional; routes degrade to the stateless contract)
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                 env("BLOOM_ENV", "dev"),
		HTTPAddr:            env("BLOOM_HTTP_ADDR", ":8080"),
		StripeSecretKey:     env("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: env("STRIPE_WEBHOOK_SECRET", ""),
		SupabaseURL:         env("SUPABASE_URL", ""),
		SupabaseAnonKey:     env("SUPABASE_ANON_KEY", ""),
		SupabaseJWKSURL:     env("SUPABASE_JWKS_URL", ""),
		JWTClockSkew:        envDur("JWT_CLOCK_SKEW_SEC", 60) * time.Second,
		CatalogFallbackPath: env("CATALOG_FALLBACK_PATH", ""),
		RedisURL:            env("REDIS_URL", ""),
		DatabaseURL:         env("DATABASE_URL", ""),
	}
	if cfg.SupabaseJWKSURL == "" && cfg.SupabaseURL != "" {
		cfg.SupabaseJWKSURL = strings.TrimRight(cfg.SupabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	}
	if cfg.StripeSecretKey == "" {
		log.Println("[WARN] STRIPE_SECRET_KEY not set — checkout and product routes will return 500")
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory subscription store for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
