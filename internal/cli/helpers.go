package cli

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"horsecounter/internal/config"
	"horsecounter/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loadConfig returns the injected config or reads the environment.
func loadConfig(globals *GlobalFlags, injected *config.Config) (*config.Config, error) {
	if injected != nil {
		return injected, nil
	}
	if globals != nil && globals.Env != "" {
		if err := config.LoadDotEnv(globals.Env); err != nil {
			return nil, err
		}
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to the configured log files, and to stderr when verbose.
func newLogger(globals *GlobalFlags, cfg *config.Config) (*logger.Logger, error) {
	var console io.Writer = io.Discard
	if globals != nil && globals.Verbose {
		console = os.Stderr
	}
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	return logger.NewWithOutput(cfg.LogDirectory, level, console)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
