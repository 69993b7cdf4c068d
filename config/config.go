package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	HTTPAddr   string
	NumWorkers int
	DataDir    string
	UploadDir  string
}

type DatabaseConfig struct {
	// URL is a Postgres connection string; empty disables persistence
	URL string
}

type RedisConfig struct {
	// Addr is host:port; empty disables the cross-instance status bridge
	Addr     string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
			NumWorkers: getEnvAsInt("NUM_WORKERS", 4),
			DataDir:    getEnv("DATA_DIR", ".data"),
			UploadDir:  getEnv("UPLOAD_DIR", ".uploads"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
