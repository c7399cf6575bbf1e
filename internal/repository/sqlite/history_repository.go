package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"horsecounter/internal/model"
)

// HistoryRepository implements repository.HistoryRepository for SQLite.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts an entry and its boxes in a single transaction.
func (r *HistoryRepository) Append(entry *model.HistoryEntry) error {
	if entry == nil {
		return errors.New("nil history entry")
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO history_entries (id, timestamp, input_type, filename, result_filename, horse_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp, string(entry.InputType), entry.Filename, entry.ResultFilename, entry.HorseCount); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if len(entry.Boxes) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO detection_boxes (entry_id, position, x1, y1, x2, y2, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, b := range entry.Boxes {
			if _, err := stmt.Exec(entry.ID, i, b.X1, b.Y1, b.X2, b.Y2, b.Confidence); err != nil {
				return fmt.Errorf("failed to insert detection box: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ReadAll returns every entry in insertion order.
func (r *HistoryRepository) ReadAll() ([]model.HistoryEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	return r.query(`
		SELECT id, timestamp, input_type, filename, result_filename, horse_count
		FROM history_entries ORDER BY seq ASC
	`)
}

// ReadRecent returns the last n entries, most recent first.
func (r *HistoryRepository) ReadRecent(n int) ([]model.HistoryEntry, error) {
	if n <= 0 {
		return []model.HistoryEntry{}, nil
	}

	r.db.RLock()
	defer r.db.RUnlock()

	return r.query(`
		SELECT id, timestamp, input_type, filename, result_filename, horse_count
		FROM history_entries ORDER BY seq DESC LIMIT ?
	`, n)
}

// GetByID retrieves an entry by its id, or nil when absent.
func (r *HistoryRepository) GetByID(id string) (*model.HistoryEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	entries, err := r.query(`
		SELECT id, timestamp, input_type, filename, result_filename, horse_count
		FROM history_entries WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Exists reports whether an entry with the id is already stored.
func (r *HistoryRepository) Exists(id string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var one int
	err := r.db.Conn().QueryRow(`SELECT 1 FROM history_entries WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check history entry: %w", err)
	}
	return true, nil
}

// Count returns the number of stored entries.
func (r *HistoryRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM history_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}

// query runs an entry select and attaches boxes; callers hold the read lock.
func (r *HistoryRepository) query(q string, args ...interface{}) ([]model.HistoryEntry, error) {
	rows, err := r.db.Conn().Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		var inputType string
		if err := rows.Scan(&e.ID, &e.Timestamp, &inputType, &e.Filename, &e.ResultFilename, &e.HorseCount); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.InputType = model.InputType(inputType)
		e.Boxes = []model.Box{}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	if err := r.attachBoxes(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// boxBatchSize keeps each IN clause under SQLite's default bound-variable limit.
const boxBatchSize = 500

func (r *HistoryRepository) attachBoxes(entries []model.HistoryEntry) error {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.ID] = i
	}

	for start := 0; start < len(entries); start += boxBatchSize {
		end := min(start+boxBatchSize, len(entries))
		if err := r.attachBoxBatch(entries, entries[start:end], index); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoryRepository) attachBoxBatch(entries, batch []model.HistoryEntry, index map[string]int) error {
	args := make([]interface{}, 0, len(batch))
	for _, e := range batch {
		args = append(args, e.ID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
	rows, err := r.db.Conn().Query(`
		SELECT entry_id, x1, y1, x2, y2, confidence
		FROM detection_boxes WHERE entry_id IN (`+placeholders+`)
		ORDER BY entry_id, position
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query detection boxes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID string
		var b model.Box
		if err := rows.Scan(&entryID, &b.X1, &b.Y1, &b.X2, &b.Y2, &b.Confidence); err != nil {
			return fmt.Errorf("failed to scan detection box: %w", err)
		}
		i := index[entryID]
		entries[i].Boxes = append(entries[i].Boxes, b)
	}
	return rows.Err()
}
