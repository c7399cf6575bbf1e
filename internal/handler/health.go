package handler

import (
	"net/http"

	"horsecounter/internal/repository"
)

// HealthHandler reports whether the history store is readable.
func HealthHandler(history repository.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := history.ReadRecent(1); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
