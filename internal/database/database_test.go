package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horsecounter/internal/config"
	"horsecounter/internal/model"
)

func TestOpen_Backends(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &config.Config{
				HistoryBackend: backend,
				HistoryFile:    filepath.Join(dir, "history.json"),
				DatabasePath:   filepath.Join(dir, "data", "history.db"),
			}

			store, err := Open(cfg)
			require.NoError(t, err)
			defer store.Close()
			assert.Equal(t, backend, store.Backend)
			assert.FileExists(t, store.Location)

			entry := model.NewHistoryEntry(model.InputImage, "a.jpg", "result_a.jpg", nil, time.Now())
			require.NoError(t, store.History.Append(entry))

			recent, err := store.History.ReadRecent(5)
			require.NoError(t, err)
			require.Len(t, recent, 1)
			assert.Equal(t, entry.ID, recent[0].ID)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(&config.Config{HistoryBackend: "redis"})
	assert.Error(t, err)
}
