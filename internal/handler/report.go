package handler

import (
	"net/http"

	"horsecounter/internal/dto"
	"horsecounter/internal/logger"
	"horsecounter/internal/service/report"
)

// ReportHandler serves a freshly generated report in a fixed format.
func ReportHandler(logger *logger.Logger, generator *report.Generator, format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, logger, generator, format)
	}
}

// DownloadHandler handles GET /download/{format} for pdf, excel and json.
func DownloadHandler(logger *logger.Logger, generator *report.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, logger, generator, r.PathValue("format"))
	}
}

func serveReport(w http.ResponseWriter, r *http.Request, logger *logger.Logger, generator *report.Generator, format string) {
	filter, err := dto.HistoryQueryFrom(r.URL.Query()).Filter()
	if err != nil {
		writeError(w, r, logger, errInvalidQuery)
		return
	}

	rep, err := generator.Generate(format, filter)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}
	sendAttachment(w, rep.Name, rep.ContentType, rep.Data)
}
