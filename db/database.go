package db

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/jvetere1999/passion-os-sub009/config"
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createReferenceTracksTable(); err != nil {
		return err
	}
	if err := createTrackAnnotationsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createReferenceTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS reference_tracks (
		id VARCHAR(36) PRIMARY KEY,
		user_id BIGINT NOT NULL,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255),
		album VARCHAR(255),
		genre VARCHAR(100),
		mime_type VARCHAR(100),
		size_bytes BIGINT,
		duration_seconds DOUBLE,
		bpm DOUBLE,
		key_signature VARCHAR(10),
		object_key VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'uploaded',
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_reference_tracks_user (user_id),
		INDEX idx_reference_tracks_status (status)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create reference_tracks table: %w", err)
	}
	log.Println("reference_tracks table initialized successfully (or already exists).")
	return nil
}

func createTrackAnnotationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS track_annotations (
		track_id VARCHAR(36) PRIMARY KEY,
		data JSON,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create track_annotations table: %w", err)
	}
	log.Println("track_annotations table initialized successfully (or already exists).")
	return nil
}
