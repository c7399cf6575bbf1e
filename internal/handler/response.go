package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"horsecounter/internal/dto"
	"horsecounter/internal/logger"
	"horsecounter/internal/middleware"
	"horsecounter/internal/response"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

const (
	// UploadsURLPrefix and ResultsURLPrefix are where stored files are served.
	UploadsURLPrefix = "/static/uploads/"
	ResultsURLPrefix = "/static/results/"
)

// ResultURL is the public path of an annotated image.
func ResultURL(resultFilename string) string {
	return ResultsURLPrefix + resultFilename
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and writes the JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	writeErrorBody(w, r, log, err, dto.ErrorResponse{})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, body dto.ErrorResponse) {
	status := response.StatusCode(err)
	body.Error = err.Error()
	body.RequestID = middleware.RequestID(r.Context())

	var respErr *response.Error
	if status >= 500 {
		log.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
		if !errors.As(err, &respErr) {
			body.Error = http.StatusText(status)
		}
	}
	writeJSON(w, status, body)
}

// sendAttachment serves data as a file download.
func sendAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
