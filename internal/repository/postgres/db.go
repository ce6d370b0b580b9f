package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/config"
)

// NewConnection opens a Postgres connection pool
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Repositories bundles all repositories
type Repositories struct {
	SavedCard *savedCardRepository
	APIClient *apiClientRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		SavedCard: NewSavedCardRepository(db, logger),
		APIClient: NewAPIClientRepository(db, logger),
	}
}
