// internal/config/config.go
//
// Environment-driven configuration. A `.env` file in the working directory
// is loaded first when present (development); real environment variables
// always win.
//
//   PORT              listen port                      (5175)
//   LOG_LEVEL         zerolog level                    (info)
//   DB_PATH           SQLite file                      (./data/memory.db)
//   JWT_SECRET        HS256 signing secret             (dev_secret_change_me)
//   JWT_EXPIRES_DAYS  token lifetime in days           (14)
//   COOKIE_NAME       auth cookie name                 (memory_token)
//   CLIENT_ORIGIN     allowed CORS origin              (http://localhost:5173)
//   APP_ENV           "production" → Secure cookies
//   CATALOG_URL       remote catalog endpoint
//   CATALOG_FILE      catalog file (.json/.yaml)
//   CATALOG_TIMEOUT   remote catalog timeout           (5s)
//   DEV_ROUTES        enable /debug routes             (false)
//   SESSION_IDLE_TTL  drop sessions idle this long     (24h)

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	LogLevel       string
	DBPath         string
	JWTSecret      string
	JWTExpiry      time.Duration
	CookieName     string
	ClientOrigin   string
	Production     bool
	CatalogURL     string
	CatalogFile    string
	CatalogTimeout time.Duration
	DevRoutes      bool
	SessionIdle    time.Duration
}

// Load reads .env (if any) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBPath:         getEnv("DB_PATH", "./data/memory.db"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiry:      time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:     getEnv("COOKIE_NAME", "memory_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:     os.Getenv("APP_ENV") == "production",
		CatalogURL:     os.Getenv("CATALOG_URL"),
		CatalogFile:    os.Getenv("CATALOG_FILE"),
		CatalogTimeout: envDuration("CATALOG_TIMEOUT", 5*time.Second),
		DevRoutes:      envBool("DEV_ROUTES", false),
		SessionIdle:    envDuration("SESSION_IDLE_TTL", 24*time.Hour),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return d
	}
	return def
}
