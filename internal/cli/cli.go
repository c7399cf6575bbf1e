// Package cli implements horsectl, the offline companion of the horse counter server.
package cli

import (
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Export  *ExportCommand
	Recent  *RecentCommand
	Migrate *MigrateCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(out io.Writer) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "horsectl"
	parser.LongDescription = "Export, inspect and migrate the horse counter history log."

	cmds := &commands{
		Export:  &ExportCommand{globals: &globals, out: out},
		Recent:  &RecentCommand{globals: &globals, out: out},
		Migrate: &MigrateCommand{globals: &globals, out: out},
	}

	parser.AddCommand("export", "Write a report file", "Render the history as a PDF, spreadsheet or JSON file.", cmds.Export)
	parser.AddCommand("recent", "List recent entries", "List the most recent history entries, newest first.", cmds.Recent)
	parser.AddCommand("migrate", "Import JSON history into SQLite", "Copy every entry of a history JSON file into the SQLite backend, skipping ids already present.", cmds.Migrate)

	return parser, &globals, cmds
}

// Run is the main entry point for horsectl using os.Args.
func Run() error {
	return RunWithArgs(nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(args []string) error {
	parser, _, _ := buildParser(os.Stdout)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}
	return nil
}
