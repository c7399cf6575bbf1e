package jsonfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"horsecounter/internal/model"
	"horsecounter/internal/repository"
)

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// HistoryRepository implements repository.HistoryRepository on a single JSON document.
// Every append rewrites the whole file; writers are serialised by mu.
type HistoryRepository struct {
	path string
	mu   sync.RWMutex
}

// NewHistoryRepository opens the history file, creating it as an empty array if absent.
func NewHistoryRepository(path string) (*HistoryRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	r := &HistoryRepository{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := r.save([]model.HistoryEntry{}); err != nil {
			return nil, fmt.Errorf("failed to initialise history file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat history file: %w", err)
	}

	return r, nil
}

// Path returns the backing file path.
func (r *HistoryRepository) Path() string {
	return r.path
}

// Append reads the full log, adds one entry and rewrites the file.
func (r *HistoryRepository) Append(entry *model.HistoryEntry) error {
	if entry == nil {
		return errors.New("nil history entry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	entries = append(entries, *entry)

	return r.save(entries)
}

// ReadAll returns every entry, oldest first.
func (r *HistoryRepository) ReadAll() ([]model.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.load()
}

// ReadRecent returns the last n entries, most recent first.
func (r *HistoryRepository) ReadRecent(n int) ([]model.HistoryEntry, error) {
	entries, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return repository.Recent(entries, n), nil
}

// GetByID returns the entry with the given id, or nil when absent.
func (r *HistoryRepository) GetByID(id string) (*model.HistoryEntry, error) {
	entries, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (r *HistoryRepository) load() ([]model.HistoryEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	entries := []model.HistoryEntry{}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history file %s: %w", r.path, err)
	}
	return entries, nil
}

// save writes to a temp file in the same directory and renames it over the log.
func (r *HistoryRepository) save(entries []model.HistoryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp history file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set history file mode: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
