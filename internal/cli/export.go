package cli

import (
	"fmt"

	"horsecounter/internal/database"
	"horsecounter/internal/dto"
	"horsecounter/internal/service/report"
)

type exportJSON struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	filter, err := dto.HistoryQuery{Type: c.Type, From: c.From, To: c.To}.Filter()
	if err != nil {
		return err
	}

	store, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	log, err := newLogger(c.globals, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	reportCfg := *cfg
	if c.Out != "" {
		reportCfg.ReportDirectory = c.Out
	}

	rep, err := report.NewGenerator(&reportCfg, log, store.History).Generate(c.Format, filter)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(c.out, exportJSON{Path: rep.Path, Bytes: len(rep.Data)})
	}
	fmt.Fprintf(c.out, "Wrote %s (%d bytes)\n", rep.Path, len(rep.Data))
	return nil
}
