package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisHost     string
	RedisPort     int
	RedisPassword string

	LogDir string

	TaskDefaultLimit int
	UserDefaultLimit int

	RateLimitMax    int
	RateLimitWindow time.Duration
}

// DSN returns the Postgres connection string. DATABASE_URL wins over the
// discrete DB_* variables.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisEnabled reports whether a Redis host was configured.
func (c Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func LoadConfig() Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using environment and default values")
		}
	}

	return Config{
		Port: getEnv("PORT", "3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnvInt("DB_PORT", 5432),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "tasks"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogDir: os.Getenv("LOG_DIR"),

		TaskDefaultLimit: getEnvInt("TASK_DEFAULT_LIMIT", 100),
		UserDefaultLimit: getEnvInt("USER_DEFAULT_LIMIT", 0),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
