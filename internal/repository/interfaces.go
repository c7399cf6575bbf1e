package repository

import (
	"horsecounter/internal/model"
)

// HistoryRepository defines the append-only history log operations.
type HistoryRepository interface {
	// Create operations
	Append(entry *model.HistoryEntry) error

	// Read operations
	ReadAll() ([]model.HistoryEntry, error)
	ReadRecent(n int) ([]model.HistoryEntry, error)
	GetByID(id string) (*model.HistoryEntry, error)
}

// Recent returns the last n entries of an oldest-first slice, most recent first.
func Recent(entries []model.HistoryEntry, n int) []model.HistoryEntry {
	if n <= 0 {
		return []model.HistoryEntry{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]model.HistoryEntry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}
