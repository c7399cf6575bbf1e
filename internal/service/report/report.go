// Package report renders the history log as PDF, spreadsheet or JSON downloads.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/oklog/ulid/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/xuri/excelize/v2"

	"horsecounter/internal/config"
	"horsecounter/internal/logger"
	"horsecounter/internal/model"
	"horsecounter/internal/repository"
	"horsecounter/internal/response"
)

var json = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

// Supported formats.
const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"
	FormatJSON  = "json"
)

var (
	ErrFontMissing   = response.NewError(http.StatusInternalServerError, "report font file is missing")
	ErrEmptyHistory  = response.NewError(http.StatusNotFound, "history is empty")
	ErrUnknownFormat = response.NewError(http.StatusBadRequest, "format must be one of pdf, excel, json")
)

const (
	displayLayout = "02.01.2006 15:04:05"
	sheetName     = "History"
)

// ExcelHeader is the fixed header row of the spreadsheet export.
var ExcelHeader = []string{"Date", "Type", "Horse count", "File", "Result file", "ID"}

// Report is a rendered export, already written to Path.
type Report struct {
	Name        string
	Path        string
	ContentType string
	Data        []byte
}

// Generator builds reports from the history store on demand.
type Generator struct {
	history  repository.HistoryRepository
	dir      string
	fontPath string
	title    string
	pdfLimit int
	logger   *logger.Logger
	now      func() time.Time
	suffix   func() string
}

// NewGenerator creates a report generator writing under cfg.ReportDirectory.
func NewGenerator(cfg *config.Config, logger *logger.Logger, history repository.HistoryRepository) *Generator {
	return &Generator{
		history:  history,
		dir:      cfg.ReportDirectory,
		fontPath: cfg.ReportFontPath,
		title:    cfg.ReportTitle,
		pdfLimit: cfg.ReportPDFLimit,
		logger:   logger,
		now:      time.Now,
		suffix:   uniqueSuffix,
	}
}

// uniqueSuffix keeps two exports within the same second from sharing a name.
func uniqueSuffix() string {
	id := ulid.Make().String()
	return strings.ToLower(id[len(id)-6:])
}

func (g *Generator) fileName(prefix, ext string) string {
	now := g.now()
	return fmt.Sprintf("%s_%s_%s_%s.%s", prefix, now.Format("2006-01-02"), now.Format("15-04-05"), g.suffix(), ext)
}

// Generate renders the given format for the entries matching filter.
func (g *Generator) Generate(format string, filter model.HistoryFilter) (*Report, error) {
	switch strings.ToLower(format) {
	case FormatPDF:
		return g.PDF(filter)
	case FormatExcel, "xlsx":
		return g.Excel(filter)
	case FormatJSON:
		return g.JSON(filter)
	default:
		return nil, ErrUnknownFormat
	}
}

// PDF lists the most recent matching entries in stored order.
func (g *Generator) PDF(filter model.HistoryFilter) (*Report, error) {
	if _, err := os.Stat(g.fontPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFontMissing, g.fontPath)
		}
		return nil, fmt.Errorf("failed to stat font: %w", err)
	}

	entries, err := g.entries(filter)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8Font("DejaVu", "", g.fontPath)
	pdf.AddPage()

	pdf.SetFont("DejaVu", "", 14)
	pdf.CellFormat(0, 10, g.title, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("DejaVu", "", 12)
	for _, line := range PDFLines(entries, g.pdfLimit) {
		pdf.CellFormat(0, 8, line, "", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	name := g.fileName("report", "pdf")
	return g.write(name, "application/pdf", buf.Bytes())
}

// PDFLines formats the last limit entries, numbered from 1 in stored order.
func PDFLines(entries []model.HistoryEntry, limit int) []string {
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s — лошадей: %d", i+1, e.Timestamp.Format(displayLayout), e.HorseCount))
	}
	return lines
}

// Excel writes one row per matching entry under ExcelHeader.
func (g *Generator) Excel(filter model.HistoryFilter) (*Report, error) {
	entries, err := g.entries(filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(ExcelHeader))
	for i, h := range ExcelHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			e.Timestamp.Format(displayLayout),
			string(e.InputType),
			e.HorseCount,
			e.Filename,
			e.ResultFilename,
			e.ID,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "F", 22); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}

	name := g.fileName("history_report", "xlsx")
	return g.write(name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// JSON exports matching entries as an indented array.
func (g *Generator) JSON(filter model.HistoryFilter) (*Report, error) {
	entries, err := g.entries(filter)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}

	name := g.fileName("history", "json")
	return g.write(name, "application/json", append(data, '\n'))
}

func (g *Generator) entries(filter model.HistoryFilter) ([]model.HistoryEntry, error) {
	all, err := g.history.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	entries := filter.Apply(all)
	if len(entries) == 0 {
		return nil, ErrEmptyHistory
	}
	return entries, nil
}

func (g *Generator) write(name, contentType string, data []byte) (*Report, error) {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	g.logger.Info("Report %s generated (%d bytes)", name, len(data))

	return &Report{Name: name, Path: path, ContentType: contentType, Data: data}, nil
}
