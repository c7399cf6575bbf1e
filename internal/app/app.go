package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"horsecounter/internal/config"
	"horsecounter/internal/database"
	"horsecounter/internal/handler"
	"horsecounter/internal/logger"
	"horsecounter/internal/route"
	"horsecounter/internal/service"
	"horsecounter/internal/service/ai"
	"horsecounter/internal/service/annotate"
	"horsecounter/internal/service/report"
	"horsecounter/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

// App owns every long-lived resource of the server: model handle, history
// store, feed hub and HTTP server. It is built once at startup.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	detector *ai.DetectorService
	store    *database.Store
	hub      *websocket.HubService
	manager  *service.Manager
	server   *http.Server
}

// NewApp loads the model, opens the history store and wires the routes.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	detector, err := ai.NewDetectorService(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise detector: %w", err)
	}

	store, err := database.Open(cfg)
	if err != nil {
		detector.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	var annotator service.Annotator = ai.NewAnnotator(cfg.TargetLabel)
	if cfg.Annotator == config.AnnotatorNative {
		annotator = annotate.NewNative(cfg.TargetLabel)
	}

	hub := websocket.NewHubService(log)

	manager, err := service.NewManager(cfg, log, service.Dependencies{
		Detector:  detector,
		Annotator: annotator,
		Frames:    ai.NewFrameExtractor(),
		History:   store.History,
		Publisher: hub,
	})
	if err != nil {
		store.Close()
		detector.Close()
		return nil, err
	}

	page, err := handler.NewIndexPage(cfg, log, store.History)
	if err != nil {
		store.Close()
		detector.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := route.SetupRoutes(cfg, log, route.Dependencies{
		Manager:   manager,
		History:   store.History,
		Reports:   report.NewGenerator(cfg, log, store.History),
		Hub:       hub,
		IndexPage: page,
	})

	return &App{
		config:   cfg,
		logger:   log,
		detector: detector,
		store:    store,
		hub:      hub,
		manager:  manager,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	a.logger.Info("Horse counter listening on http://localhost:%d", a.config.Port)
	a.logger.Info("History: %s (%s), model: %s, annotator: %s",
		a.store.Location, a.store.Backend, a.config.ModelPath, a.config.Annotator)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

// Close releases the model and the history store.
func (a *App) Close() error {
	return errors.Join(a.detector.Close(), a.store.Close())
}
