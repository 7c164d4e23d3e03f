package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// Service wraps the process-wide database handle.
type Service interface {
	DB() *sql.DB
	Health() map[string]string
	Close() error
}

type service struct {
	db *sql.DB
}

var (
	dbInstance *service
	dbOnce     sync.Once
)

// New returns the process-wide database service, dialing postgres on first
// use. Subsequent calls return the same handle.
func New() Service {
	dbOnce.Do(func() {
		// Best effort: tests and CLI invocations run without viper.
		_ = godotenv.Load()

		connStr := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			envOr("DB_HOST", "localhost"),
			envOr("DB_PORT", "5432"),
			os.Getenv("DB_DATABASE"),
			envOr("DB_SCHEMA", "public"),
		)

		db, err := sql.Open("pgx", connStr)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		dbInstance = &service{db: db}
	})
	return dbInstance
}

// DB exposes the underlying handle for repositories and migrations.
func (s *service) DB() *sql.DB {
	return s.db
}

// Health reports connectivity and pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	poolStats := s.db.Stats()
	stats["status"] = "up"
	stats["open_connections"] = fmt.Sprintf("%d", poolStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", poolStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", poolStats.Idle)

	return stats
}

// Close closes the database connection pool.
func (s *service) Close() error {
	return s.db.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
