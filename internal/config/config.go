// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Persistence（いずれか一方が必須。両方設定時はDATABASE_URLを優先）
	DatabaseURL   string
	UserStoreFile string

	// Token
	JWTSecret string
	TokenTTL  time.Duration

	// Password
	BcryptCost        int
	MinPasswordLength int

	// Rate Limit（認証エンドポイント, req/min/IP）
	RateLimitAuth int

	// Server
	ServerPort     string
	RequestTimeout time.Duration

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.UserStoreFile = os.Getenv("USER_STORE_FILE")
	if cfg.DatabaseURL == "" && cfg.UserStoreFile == "" {
		missing = append(missing, "DATABASE_URL or USER_STORE_FILE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 7*24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)
	cfg.MinPasswordLength = getEnvInt("MIN_PASSWORD_LENGTH", 6)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
