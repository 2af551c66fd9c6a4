package config

import (
	"os"

	"github.com/joho/godotenv"

	"todolist/contract"
)

type Config struct {
	Port        string
	Env         string
	DBPath      string
	LogLevel    string
	CORSOrigins string
	Authority   string
	RedisAddr   string
}

var AppConfig *Config

// Load reads .env (if present) and the environment into AppConfig.
func Load() *Config {
	_ = godotenv.Load()

	AppConfig = &Config{
		Port:        GetEnv("PORT", "3000"),
		Env:         GetEnv("ENV", "development"),
		DBPath:      GetEnv("DB_PATH", "./data/todolist.db"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "*"),
		Authority:   GetEnv("CONTENT_AUTHORITY", contract.Authority),
		RedisAddr:   GetEnv("REDIS_ADDR", ""),
	}
	return AppConfig
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
