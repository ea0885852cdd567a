package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// DB is the sqlite store of user accounts and booking records.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: sqlite serializes writers and :memory: is per connection
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT UNIQUE NOT NULL,
            full_name TEXT NOT NULL,
            password_hash TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            record_key TEXT UNIQUE NOT NULL,
            guest_email TEXT NOT NULL DEFAULT '',
            guest_name TEXT NOT NULL DEFAULT '',
            room_id INTEGER NOT NULL,
            room_name TEXT NOT NULL,
            room_image TEXT,
            room_category TEXT,
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            guests INTEGER NOT NULL,
            base_price INTEGER NOT NULL,
            nights INTEGER NOT NULL,
            subtotal INTEGER NOT NULL,
            cleaning_fee INTEGER NOT NULL,
            service_fee INTEGER NOT NULL,
            taxes INTEGER NOT NULL,
            total INTEGER NOT NULL,
            savings INTEGER NOT NULL DEFAULT 0,
            special_requests TEXT NOT NULL DEFAULT '{}',
            card_last_four TEXT,
            status TEXT NOT NULL DEFAULT 'confirmed',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_check_in ON bookings(check_in)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_guest_email ON bookings(guest_email)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Ready reports whether the database answers queries.
func (db *DB) Ready(ctx context.Context) error {
	return db.PingContext(ctx)
}
