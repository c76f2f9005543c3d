package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"console", "json"}
	outputFormats = []string{"table", "yaml", "json"}
)

func (c *Config) normalize() error {
	var err error
	c.Source.SheetID = strings.TrimSpace(c.Source.SheetID)
	if c.Source.Players, err = expandSource(c.Source.Players); err != nil {
		return err
	}
	if c.Source.Tournaments, err = expandSource(c.Source.Tournaments); err != nil {
		return err
	}
	if c.Source.TieBreakers, err = expandSource(c.Source.TieBreakers); err != nil {
		return err
	}
	if c.Source.Aliases, err = expandSource(c.Source.Aliases); err != nil {
		return err
	}
	scorecards := make([]string, 0, len(c.Source.Scorecards))
	for _, location := range c.Source.Scorecards {
		expanded, err := expandSource(location)
		if err != nil {
			return err
		}
		if expanded != "" {
			scorecards = append(scorecards, expanded)
		}
	}
	c.Source.Scorecards = scorecards

	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return err
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.SheetID == "" {
		errs = append(errs, errors.New("source.sheet_id must not be empty"))
	}
	if c.Source.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("source.fetch_timeout must be positive, got %d", c.Source.FetchTimeout))
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required when the cache is enabled"))
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of %s", c.Logging.Level, strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format %q is not one of %s", c.Logging.Format, strings.Join(logFormats, ", ")))
	}
	if !slices.Contains(outputFormats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %s", c.Output.Format, strings.Join(outputFormats, ", ")))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// RequireSources checks that a pass has something to read.
func (c *Config) RequireSources() error {
	var missing []string
	if c.Source.Players == "" {
		missing = append(missing, "source.players")
	}
	if c.Source.Tournaments == "" {
		missing = append(missing, "source.tournaments")
	}
	if len(c.Source.Scorecards) == 0 {
		missing = append(missing, "source.scorecards")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing source settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
