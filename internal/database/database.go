// Package database opens the history backend selected by configuration.
package database

import (
	"fmt"

	"horsecounter/internal/config"
	"horsecounter/internal/repository"
	"horsecounter/internal/repository/jsonfile"
	"horsecounter/internal/repository/sqlite"
)

// Store is an opened history backend.
type Store struct {
	History repository.HistoryRepository
	Backend string
	// Location is the file backing the store.
	Location string

	db *sqlite.DB
}

// Open returns the JSON file store or the SQLite store depending on cfg.HistoryBackend.
func Open(cfg *config.Config) (*Store, error) {
	switch cfg.HistoryBackend {
	case config.BackendJSON, "":
		repo, err := jsonfile.NewHistoryRepository(cfg.HistoryFile)
		if err != nil {
			return nil, err
		}
		return &Store{History: repo, Backend: config.BackendJSON, Location: cfg.HistoryFile}, nil

	case config.BackendSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return &Store{
			History:  sqlite.NewHistoryRepository(db),
			Backend:  config.BackendSQLite,
			Location: cfg.DatabasePath,
			db:       db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

// Close releases the database connection, if any.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
