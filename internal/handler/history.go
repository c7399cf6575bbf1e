package handler

import (
	"net/http"

	"horsecounter/internal/dto"
	"horsecounter/internal/logger"
	"horsecounter/internal/repository"
	"horsecounter/internal/response"
)

var (
	errInvalidQuery  = response.NewError(http.StatusBadRequest, "invalid query parameters")
	errEntryNotFound = response.NewError(http.StatusNotFound, "history entry not found")
)

// HistoryHandler handles GET /history. With ?limit=n it returns the n most
// recent entries, newest first; otherwise the whole log, oldest first.
// type/from/to narrow the result.
func HistoryHandler(logger *logger.Logger, history repository.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := dto.HistoryQueryFrom(r.URL.Query())
		filter, err := q.Filter()
		if err != nil {
			writeError(w, r, logger, errInvalidQuery)
			return
		}

		entries, err := history.ReadAll()
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		entries = filter.Apply(entries)

		if q.Limit != "" {
			limit, err := q.LimitOr(0)
			if err != nil {
				writeError(w, r, logger, errInvalidQuery)
				return
			}
			entries = repository.Recent(entries, limit)
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

// HistoryEntryHandler handles GET /history/{id}.
func HistoryEntryHandler(logger *logger.Logger, history repository.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := history.GetByID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		if entry == nil {
			writeError(w, r, logger, errEntryNotFound)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}
