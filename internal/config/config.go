package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	EmailDir string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	AdminPassword  string // plaintext fallback for dev
	AdminPassHash  string // bcrypt; wins over AdminPassword
	AdminTokenTTL  time.Duration

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8000"),
		EmailDir:       envOr("EMAIL_DIR", "/emails"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminPassword:  envOr("ADMIN_PASSWORD", "admin123"),
		AdminPassHash:  os.Getenv("ADMIN_PASS_HASH"),
		AdminTokenTTL:  time.Duration(envInt("ADMIN_TOKEN_TTL", 43200)) * time.Second,
		CORSOrigins:    csvOr("CORS_ORIGINS", "*"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
