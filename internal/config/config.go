package config

import (
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config is loaded once at startup and passed to constructors; nothing
// mutates it afterwards.
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	GinMode string

	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	RefreshTokenTTL time.Duration

	RefreshCookieEnabled  bool
	RefreshCookieName     string
	RefreshCookiePath     string
	RefreshCookieDomain   string
	RefreshCookieSecure   bool
	RefreshCookieHTTPOnly bool
	RefreshCookieSameSite http.SameSite

	AvatarDir string
}

func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "projecthub"),
		DBPassword: getEnv("DB_PASSWORD", "projecthub"),
		DBName:     getEnv("DB_NAME", "projecthub"),

		GinMode: getEnv("GIN_MODE", "debug"),

		JWTSecret:      getEnv("JWT_SECRET", "default-secret-key-change-me"),
		JWTIssuer:      getEnv("JWT_ISSUER", "projecthub-api"),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL_SECONDS", 900),

		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL_SECONDS", 604800),

		RefreshCookieEnabled:  getBoolEnv("REFRESH_COOKIE_ENABLED", true),
		RefreshCookieName:     getEnv("REFRESH_COOKIE_NAME", "refresh_token"),
		RefreshCookiePath:     getEnv("REFRESH_COOKIE_PATH", "/"),
		RefreshCookieDomain:   getEnv("REFRESH_COOKIE_DOMAIN", ""),
		RefreshCookieSecure:   getBoolEnv("REFRESH_COOKIE_SECURE", false),
		RefreshCookieHTTPOnly: getBoolEnv("REFRESH_COOKIE_HTTP_ONLY", true),
		RefreshCookieSameSite: parseSameSite(getEnv("REFRESH_COOKIE_SAME_SITE", "lax")),

		AvatarDir: getEnv("AVATAR_DIR", "uploads/avatars"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultSeconds) * time.Second
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return time.Duration(defaultSeconds) * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func parseSameSite(value string) http.SameSite {
	switch value {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
