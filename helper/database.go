package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for the Postgres
// instance backing the Store.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads connection parameters from the POSTGRES_*
// environment variables. DATABASE_URL is not read.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	cfg := &DatabaseConfiguration{
		Host:     getEnvDefault("POSTGRES_HOST", "localhost"),
		Port:     getEnvDefault("POSTGRES_PORT", "5432"),
		Database: getEnvDefault("POSTGRES_DATABASE", "postgres"),
		Username: getEnvDefault("POSTGRES_USER", "postgres"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Schema:   getEnvDefault("POSTGRES_SCHEMA", "public"),
		SSLMode:  getEnvDefault("POSTGRES_SSLMODE", "disable"),
	}
	if cfg.Host == "" || cfg.Database == "" {
		return nil, NewKindError("database configuration", KindBadInput, fmt.Errorf("POSTGRES_HOST and POSTGRES_DATABASE are required"))
	}
	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Database wraps a *sql.DB with the structured logger every handler logs
// through.
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
	Name     string
}

// NewDatabase opens a connection pool for config and wraps it with logger.
// It panics on a connection failure, mirroring the teacher's own
// fail-fast startup discipline (a Store that cannot connect cannot serve).
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		config.Host, config.Port, config.Database, config.Username, config.Password, config.SSLMode, config.Schema,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("failed to open database connection", slog.String("name", name), slog.Any("error", err))
		panic(err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := pingWithRetry(db, 5, time.Second); err != nil {
		logger.Error("failed to ping database", slog.String("name", name), slog.Any("error", err))
		panic(err)
	}

	logger.Info("connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))

	return &Database{Instance: db, Logger: logger, Name: name}
}

func pingWithRetry(db *sql.DB, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(delay)
	}
	return err
}
