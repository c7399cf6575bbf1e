package route

import (
	"net/http"

	"horsecounter/internal/config"
	"horsecounter/internal/handler"
	"horsecounter/internal/logger"
	"horsecounter/internal/middleware"
	"horsecounter/internal/repository"
	"horsecounter/internal/service"
	"horsecounter/internal/service/report"
	"horsecounter/internal/service/websocket"
)

// Dependencies are the services the routes are bound to.
type Dependencies struct {
	Manager   *service.Manager
	History   repository.HistoryRepository
	Reports   *report.Generator
	Hub       *websocket.HubService
	IndexPage *handler.IndexPage
}

// SetupRoutes registers HTTP routes, stored-file serving and API endpoints,
// and wraps the mux with request id, access logging and panic recovery.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Stored files
	mux.Handle("GET "+handler.UploadsURLPrefix, handler.StoredFilesHandler(handler.UploadsURLPrefix, cfg.UploadDirectory))
	mux.Handle("GET "+handler.ResultsURLPrefix, handler.StoredFilesHandler(handler.ResultsURLPrefix, cfg.ResultDirectory))

	// Uploads
	limited := middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, logger)
	mux.Handle("POST /process", limited(handler.ProcessHandler(cfg, logger, deps.Manager)))
	mux.Handle("POST /predict", limited(handler.PredictHandler(cfg, logger, deps.Manager, deps.IndexPage)))

	// History and reports
	mux.HandleFunc("GET /history", handler.HistoryHandler(logger, deps.History))
	mux.HandleFunc("GET /history/{id}", handler.HistoryEntryHandler(logger, deps.History))
	mux.HandleFunc("GET /report/pdf", handler.ReportHandler(logger, deps.Reports, report.FormatPDF))
	mux.HandleFunc("GET /report/excel", handler.ReportHandler(logger, deps.Reports, report.FormatExcel))
	mux.HandleFunc("GET /download/{format}", handler.DownloadHandler(logger, deps.Reports))

	// Live feed
	if deps.Hub != nil {
		mux.HandleFunc("GET /api/feed", handler.FeedWebsocketHandler(deps.Hub, logger))
	}

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(logger))
	mux.HandleFunc("POST /logs/{level}/clear", handler.ClearLogsHandler(logger))

	mux.HandleFunc("GET /healthz", handler.HealthHandler(deps.History))
	mux.HandleFunc("GET /{$}", handler.IndexHandler(deps.IndexPage))

	return middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.RecoverMiddleware(logger),
	)
}
