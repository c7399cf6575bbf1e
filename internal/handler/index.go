package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"horsecounter/internal/config"
	"horsecounter/internal/logger"
	"horsecounter/internal/model"
	"horsecounter/internal/repository"
)

//go:embed templates/*.html
var templates embed.FS

// ResultView is the outcome of a form upload.
type ResultView struct {
	ImageURL   string
	HorseCount int
}

// IndexView is the data rendered on the home page.
type IndexView struct {
	Recent []model.HistoryEntry
	Result *ResultView
	Error  string
}

// IndexPage renders the home page with the most recent entries.
type IndexPage struct {
	tmpl    *template.Template
	history repository.HistoryRepository
	limit   int
	logger  *logger.Logger
}

// NewIndexPage parses the embedded home page template.
func NewIndexPage(cfg *config.Config, logger *logger.Logger, history repository.HistoryRepository) (*IndexPage, error) {
	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{"resultURL": ResultURL}).
		ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &IndexPage{tmpl: tmpl, history: history, limit: cfg.HomeRecentLimit, logger: logger}, nil
}

// Render fills in the recent entries and writes the page with status.
func (p *IndexPage) Render(w http.ResponseWriter, r *http.Request, status int, view IndexView) {
	recent, err := p.history.ReadRecent(p.limit)
	if err != nil {
		p.logger.Error("Failed to read recent history: %v", err)
		if view.Error == "" {
			view.Error = "history is unavailable"
		}
	}
	view.Recent = recent

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, view); err != nil {
		p.logger.Error("Failed to render index: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// IndexHandler handles GET /.
func IndexHandler(page *IndexPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page.Render(w, r, http.StatusOK, IndexView{})
	}
}
