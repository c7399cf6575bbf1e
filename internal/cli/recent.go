package cli

import (
	"fmt"
	"text/tabwriter"

	"horsecounter/internal/database"
)

// Execute implements the go-flags Commander interface for RecentCommand.
func (c *RecentCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.cfg)
	if err != nil {
		return err
	}

	store, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	entries, err := store.History.ReadRecent(c.Limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(c.out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No history entries.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tHORSES\tFILE\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.Timestamp.Format("02.01.2006 15:04:05"), e.InputType, e.HorseCount, e.Filename, e.ID)
	}
	return tw.Flush()
}
