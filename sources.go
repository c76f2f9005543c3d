package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/Nydauron/whistledger/config"
	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/logging"
	"github.com/Nydauron/whistledger/parsers"
	"github.com/Nydauron/whistledger/pipeline"
	"github.com/Nydauron/whistledger/scorecards"
	"golang.org/x/sync/errgroup"
)

const maxParallelFetches = 4

type sourceReader struct {
	client *http.Client
	logger *slog.Logger
}

func newSourceReader(timeout time.Duration, logger *slog.Logger) *sourceReader {
	return &sourceReader{
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(logger, "sources"),
	}
}

// open returns the body of a URL or file and the format to parse it with.
func (s *sourceReader) open(ctx context.Context, location string) (io.ReadCloser, parsers.Format, error) {
	if config.IsURL(location) {
		u, err := url.ParseRequestURI(location)
		if err != nil {
			return nil, 0, fmt.Errorf("parse source url: %w", err)
		}
		s.logger.Debug("fetching sheet", logging.String("url", u.Redacted()))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, 0, fmt.Errorf("build request: %w", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("fetch %s: invalid HTTP status code received: %v", u.Redacted(), resp.Status)
		}
		return resp.Body, parsers.DetectFormat(u.Path, resp.Header.Get("Content-Type")), nil
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, 0, fmt.Errorf("provided source was neither a valid URL nor a readable file: %w", err)
	}
	return f, parsers.DetectFormat(location, ""), nil
}

func (s *sourceReader) table(ctx context.Context, location string) (*parsers.Table, error) {
	if location == "" {
		return nil, nil
	}
	body, format, err := s.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	table, err := parsers.ParseTable(body, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}
	s.logger.Debug("sheet parsed",
		logging.String(logging.FieldSheet, sheetName(location)),
		logging.String("format", format.String()),
		logging.Int("records", len(table.Records)))
	return table, nil
}

func (s *sourceReader) aliases(ctx context.Context, location string) (identity.AliasTable, error) {
	if location == "" {
		return identity.AliasTable{}, nil
	}
	body, _, err := s.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return identity.LoadAliases(body)
}

// input reads every configured sheet.
func (s *sourceReader) input(ctx context.Context, src config.Source) (pipeline.Input, error) {
	in := pipeline.Input{SheetID: src.SheetID, TieBreakerSheet: sheetName(src.TieBreakers)}
	var err error
	if in.Players, err = s.table(ctx, src.Players); err != nil {
		return in, err
	}
	if in.Aliases, err = s.aliases(ctx, src.Aliases); err != nil {
		return in, err
	}
	if in.Tournaments, err = s.table(ctx, src.Tournaments); err != nil {
		return in, err
	}
	if in.TieBreakers, err = s.table(ctx, src.TieBreakers); err != nil {
		return in, err
	}

	// Scorecard sheets are fetched in parallel but kept in configured order.
	sheets := make([]scorecards.Sheet, len(src.Scorecards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, location := range src.Scorecards {
		g.Go(func() error {
			table, err := s.table(gctx, location)
			if err != nil {
				return err
			}
			sheets[i] = scorecards.Sheet{Name: sheetName(location), Table: table}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return in, err
	}
	in.Scorecards = sheets
	return in, nil
}

// sheetName is the last path element of a file or URL, used in issue
// locations.
func sheetName(location string) string {
	if location == "" {
		return ""
	}
	if config.IsURL(location) {
		if u, err := url.Parse(location); err == nil && u.Path != "" && u.Path != "/" {
			name := path.Base(u.Path)
			// Published spreadsheets share one path; gid picks the tab.
			if gid := u.Query().Get("gid"); gid != "" {
				name += "#gid=" + gid
			}
			return name
		}
		return location
	}
	return filepath.Base(location)
}
