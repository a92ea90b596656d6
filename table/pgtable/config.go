package pgtable

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the connection settings for the PostgreSQL driver.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ConfigFromEnv loads settings from the environment, reading a .env file
// first when one is present.
func ConfigFromEnv() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("pgtable: no .env file found, relying on environment variables")
	}
	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "coursedb"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "coursedb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN renders the config as a keyword/value connection string.
func (c Config) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" sslmode=" + c.SSLMode
}

// OpenFromEnv connects using environment-derived settings.
func OpenFromEnv(ctx context.Context) (*Driver, error) {
	return Open(ctx, ConfigFromEnv().DSN())
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
