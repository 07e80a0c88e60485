package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Env         string
	Secret      string
	DatabaseDSN string
	HTTPPort    string
	CatalogCSV  string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	env := getenv("APP_ENV", "development")
	secret := getenv("JWT_SECRET", "dev_secret")

	port := getenv("HTTP_PORT", "4000")
	if _, err := strconv.Atoi(port); err != nil {
		port = "4000"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		host := getenv("DB_HOST", "localhost")
		user := getenv("DB_USER", "postgres")
		password := getenv("DB_PASSWORD", "postgres")
		dbPort := getenv("DB_PORT", "5432")
		name := getenv("DB_NAME", "comercio")
		sslMode := getenv("DB_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, dbPort, name, sslMode)
	}

	return Config{
		Env:         env,
		Secret:      secret,
		DatabaseDSN: dsn,
		HTTPPort:    port,
		CatalogCSV:  os.Getenv("PRODUCT_CATALOG_CSV"),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
