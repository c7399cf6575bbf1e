package cli

import (
	"io"

	"horsecounter/internal/config"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Env     string `long:"env" description:"Path to a .env file" default:".env"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Log to stderr while running"`
}

// ExportCommand renders a report file from the history log.
type ExportCommand struct {
	Format string `long:"format" description:"Report format: pdf | excel | json" default:"excel"`
	Out    string `long:"out" description:"Output directory (defaults to REPORT_DIR)"`
	Type   string `long:"type" description:"Only entries of this input type"`
	From   string `long:"from" description:"Only entries on or after this day (YYYY-MM-DD)"`
	To     string `long:"to" description:"Only entries on or before this day (YYYY-MM-DD)"`

	globals *GlobalFlags
	cfg     *config.Config // injectable for testing; nil loads from the environment
	out     io.Writer
}

// RecentCommand lists the most recent entries.
type RecentCommand struct {
	Limit int `long:"limit" description:"Number of entries" default:"5"`

	globals *GlobalFlags
	cfg     *config.Config
	out     io.Writer
}

// MigrateCommand copies a JSON history file into the SQLite backend.
type MigrateCommand struct {
	From string `long:"from" description:"Source history JSON file (defaults to HISTORY_FILE)"`
	DB   string `long:"db" description:"Target SQLite database (defaults to DATABASE_PATH)"`

	globals *GlobalFlags
	cfg     *config.Config
	out     io.Writer
}
