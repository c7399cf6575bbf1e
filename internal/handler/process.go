package handler

import (
	"errors"
	"net/http"
	"strings"

	"horsecounter/internal/config"
	"horsecounter/internal/dto"
	"horsecounter/internal/logger"
	"horsecounter/internal/model"
	"horsecounter/internal/response"
	"horsecounter/internal/service"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// ProcessHandler handles POST /process: upload, detect, annotate, record.
func ProcessHandler(cfg *config.Config, logger *logger.Logger, manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := processUpload(w, r, cfg, manager)
		if err != nil {
			writeProcessError(w, r, logger, entry, err)
			return
		}
		writeJSON(w, http.StatusOK, processResponse(entry))
	}
}

// PredictHandler handles POST /predict from the upload form. Browsers get the
// home page re-rendered with the result; JSON clients get the /process response.
func PredictHandler(cfg *config.Config, logger *logger.Logger, manager *service.Manager, page *IndexPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := processUpload(w, r, cfg, manager)

		if wantsJSON(r) {
			if err != nil {
				writeProcessError(w, r, logger, entry, err)
				return
			}
			writeJSON(w, http.StatusOK, processResponse(entry))
			return
		}

		view := IndexView{}
		status := http.StatusOK
		if err != nil {
			view.Error = err.Error()
			status = response.StatusCode(err)
			if status >= 500 {
				logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
			}
		}
		if entry != nil {
			view.Result = &ResultView{ImageURL: ResultURL(entry.ResultFilename), HorseCount: entry.HorseCount}
		}
		page.Render(w, r, status, view)
	}
}

func processUpload(w http.ResponseWriter, r *http.Request, cfg *config.Config, manager *service.Manager) (*model.HistoryEntry, error) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, service.ErrFileTooLarge
		}
		return nil, service.ErrMissingFile
	}
	defer r.MultipartForm.RemoveAll()

	req := dto.ProcessRequest{Type: strings.ToLower(strings.TrimSpace(r.FormValue("type")))}
	if err := validate.Struct(req); err != nil {
		return nil, service.ErrInvalidType
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, service.ErrMissingFile
	}
	defer file.Close()

	return manager.Process(r.Context(), service.Upload{
		Filename:  header.Filename,
		Size:      header.Size,
		Content:   file,
		InputType: model.InputType(req.Type),
	})
}

func processResponse(entry *model.HistoryEntry) dto.ProcessResponse {
	return dto.ProcessResponse{
		Success:    true,
		HorseCount: entry.HorseCount,
		Boxes:      entry.Boxes,
		ResultURL:  ResultURL(entry.ResultFilename),
		HistoryID:  entry.ID,
	}
}

func writeProcessError(w http.ResponseWriter, r *http.Request, logger *logger.Logger, entry *model.HistoryEntry, err error) {
	body := dto.ErrorResponse{}
	if entry != nil && errors.Is(err, service.ErrHistoryWrite) {
		body.ResultURL = ResultURL(entry.ResultFilename)
		body.HistoryID = entry.ID
	}
	writeErrorBody(w, r, logger, err, body)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
