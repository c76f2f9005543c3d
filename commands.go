package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Nydauron/whistledger/cache"
	"github.com/Nydauron/whistledger/config"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/logging"
	"github.com/Nydauron/whistledger/pipeline"
	"github.com/Nydauron/whistledger/render"
	"github.com/Nydauron/whistledger/writers"
)

// session is what every command needs: configuration, a logger, and the
// engine that holds the pass result.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	format render.Format
	engine *pipeline.Engine
	input  pipeline.Input
}

func newSession(cCtx *cli.Context) (*session, error) {
	cfg, _, _, err := config.Load(cCtx.String(configFlag))
	if err != nil {
		return nil, err
	}
	if v := cCtx.String(logLevelFlag); v != "" {
		cfg.Logging.Level = v
	}
	if v := cCtx.String(logFormatFlag); v != "" {
		cfg.Logging.Format = v
	}
	if v := cCtx.String(formatFlag); v != "" {
		cfg.Output.Format = v
	}
	if cCtx.Bool(noCacheFlag) {
		cfg.Cache.Enabled = false
	}
	if err := cfg.RequireSources(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cCtx.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Source.FetchTimeout) * time.Second
	input, err := newSourceReader(timeout, logger).input(cCtx.Context, cfg.Source)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		logger: logger,
		format: format,
		engine: pipeline.NewEngine(logger),
		input:  input,
	}, nil
}

// run computes or restores the generation for the configured sheets.
func (s *session) run(ctx context.Context) (*pipeline.Generation, error) {
	if !s.cfg.Cache.Enabled {
		return s.engine.Process(ctx, s.input)
	}
	store, err := cache.Open(ctx, s.cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	gen, _, err := s.engine.Load(ctx, s.input, store)
	if errors.Is(err, cache.ErrLocked) {
		s.logger.Warn("cache is busy; results were computed but not stored",
			logging.String("cache", store.Path()))
		return gen, nil
	}
	return gen, err
}

func loadGeneration(cCtx *cli.Context) (*session, *pipeline.Generation, error) {
	s, err := newSession(cCtx)
	if err != nil {
		return nil, nil, err
	}
	gen, err := s.run(cCtx.Context)
	if err != nil {
		return nil, nil, err
	}
	return s, gen, nil
}

func processAction(cCtx *cli.Context) error {
	s, gen, err := loadGeneration(cCtx)
	if err != nil {
		return err
	}
	if s.format != render.FormatTable {
		counts := map[issues.Severity]int{}
		for _, issue := range gen.Issues {
			counts[issue.Severity]++
		}
		return render.Encode(cCtx.App.Writer, s.format, map[string]any{
			"rawHash":     gen.RawHash,
			"fromCache":   gen.FromCache,
			"tournaments": len(gen.Tournaments),
			"players":     len(gen.Stats.Players),
			"warnings":    counts[issues.SeverityWarning],
			"errors":      counts[issues.SeverityError],
		})
	}
	if err := render.Tournaments(cCtx.App.Writer, gen.Tournaments, gen.DisplayName); err != nil {
		return err
	}
	source := "computed"
	if gen.FromCache {
		source = "restored from cache"
	}
	_, err = fmt.Fprintf(cCtx.App.Writer, "%s %s, %d data issues\n", gen.RawHash, source, len(gen.Issues))
	return err
}

func standingsAction(cCtx *cli.Context) error {
	s, gen, err := loadGeneration(cCtx)
	if err != nil {
		return err
	}
	id := cCtx.String(tournamentFlag)
	if id == "" {
		if s.format != render.FormatTable {
			return render.Encode(cCtx.App.Writer, s.format, gen.Tournaments)
		}
		return render.Tournaments(cCtx.App.Writer, gen.Tournaments, gen.DisplayName)
	}
	t, ok := gen.Tournament(id)
	if !ok {
		return fmt.Errorf("no tournament with id %q", id)
	}
	if s.format != render.FormatTable {
		return render.Encode(cCtx.App.Writer, s.format, t)
	}
	return render.Standings(cCtx.App.Writer, t, gen.DisplayName)
}

func rankingsAction(cCtx *cli.Context) error {
	s, gen, err := loadGeneration(cCtx)
	if err != nil {
		return err
	}
	rankings := gen.SeedRankings()
	if s.format != render.FormatTable {
		return render.Encode(cCtx.App.Writer, s.format, rankings)
	}
	return render.Rankings(cCtx.App.Writer, rankings, gen.DisplayName)
}

func playerAction(cCtx *cli.Context) error {
	s, gen, err := loadGeneration(cCtx)
	if err != nil {
		return err
	}
	id, rec, _ := gen.Player(cCtx.String(playerFlag))
	view := render.PlayerView{
		ID:     id,
		Name:   gen.DisplayName(id),
		Record: rec,
		Seed:   gen.PlayerData(id),
		Pairs:  render.PartnersOf(gen.Stats, id),
	}
	if s.format != render.FormatTable {
		return render.Encode(cCtx.App.Writer, s.format, view)
	}
	return render.Player(cCtx.App.Writer, view, gen.DisplayName)
}

func issuesAction(cCtx *cli.Context) error {
	s, gen, err := loadGeneration(cCtx)
	if err != nil {
		return err
	}
	list := gen.Issues
	if severity := issues.Severity(cCtx.String(severityFlag)); severity != "" {
		list = nil
		for _, issue := range gen.Issues {
			if issue.Severity == severity {
				list = append(list, issue)
			}
		}
	}
	if s.format != render.FormatTable {
		if list == nil {
			list = []issues.Issue{}
		}
		return render.Encode(cCtx.App.Writer, s.format, list)
	}
	return render.Issues(cCtx.App.Writer, list)
}

func exportAction(cCtx *cli.Context) error {
	s, _, err := loadGeneration(cCtx)
	if err != nil {
		return err
	}
	out := writers.Output(cCtx.String(outputFlag), cCtx.App.Writer)
	switch kind := cCtx.String(kindFlag); kind {
	case "raw":
		err = s.engine.ExportRaw(out)
	case "stats":
		err = s.engine.ExportStats(out)
	default:
		err = fmt.Errorf("unknown document kind %q; want raw or stats", kind)
	}
	if err != nil {
		if a, ok := out.(interface{ Abort() }); ok {
			a.Abort()
		}
		_ = out.Close()
		return err
	}
	return out.Close()
}

func hashAction(cCtx *cli.Context) error {
	s, err := newSession(cCtx)
	if err != nil {
		return err
	}
	raw, err := pipeline.Collect(s.input, issues.Discard{})
	if err != nil {
		return err
	}
	hash, err := cache.RawHash(raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cCtx.App.Writer, hash)
	return err
}

func initConfigAction(cCtx *cli.Context) error {
	target := cCtx.Args().First()
	if target == "" {
		var err error
		if target, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := config.CreateSample(target); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cCtx.App.Writer, "wrote %s\n", target)
	return err
}
