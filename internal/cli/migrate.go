package cli

import (
	"fmt"
	"os"

	"horsecounter/internal/repository/jsonfile"
	"horsecounter/internal/repository/sqlite"
)

type migrateJSON struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Legacy   int    `json:"legacy"`
}

// Execute implements the go-flags Commander interface for MigrateCommand.
func (c *MigrateCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	from := c.From
	if from == "" {
		from = cfg.HistoryFile
	}
	target := c.DB
	if target == "" {
		target = cfg.DatabasePath
	}

	if _, err := os.Stat(from); err != nil {
		return fmt.Errorf("source history: %w", err)
	}

	source, err := jsonfile.NewHistoryRepository(from)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	entries, err := source.ReadAll()
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	db, err := sqlite.New(target)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer db.Close()
	repo := sqlite.NewHistoryRepository(db)

	result := migrateJSON{Source: from, Target: target}
	for i := range entries {
		exists, err := repo.Exists(entries[i].ID)
		if err != nil {
			return err
		}
		if exists {
			result.Skipped++
			continue
		}
		if err := repo.Append(&entries[i]); err != nil {
			return fmt.Errorf("import entry %s: %w", entries[i].ID, err)
		}
		result.Imported++
		if entries[i].Legacy {
			result.Legacy++
		}
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(c.out, result)
	}
	fmt.Fprintf(c.out, "Imported %d entries (%d legacy), skipped %d already present\n",
		result.Imported, result.Legacy, result.Skipped)
	return nil
}
