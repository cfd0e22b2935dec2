package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	"poeroll/internal/components/telemetry"
	"poeroll/internal/db"
)

// Config selects the database, Url takes precedence over File.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

const MemoryFile = ":memory:"

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		return openRemote(config.Url, config.AuthToken)
	}
	if config.File == "" {
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}

	if config.File != MemoryFile {
		_, statErr := os.Stat(config.File)
		if os.IsNotExist(statErr) {
			f, err := os.Create(config.File)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	database, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer, an in-memory database also only lives
	// as long as its one connection
	database.SetMaxOpenConns(1)
	_, err = database.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func openRemote(dbUrl, authToken string) (*sql.DB, error) {
	parsed, err := url.Parse(dbUrl)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if authToken != "" {
		values := parsed.Query()
		values.Set("authToken", authToken)
		parsed.RawQuery = values.Encode()
	}
	return sql.Open("libsql", parsed.String())
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, config Config, tel telemetry.API) (*Store, error) {
	database, err := config.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return New(database, tel), nil
}
