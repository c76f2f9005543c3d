package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Nydauron/whistledger/cache"
	"github.com/Nydauron/whistledger/identity"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/logging"
	"github.com/Nydauron/whistledger/metadata"
	"github.com/Nydauron/whistledger/models"
	"github.com/Nydauron/whistledger/reconcile"
	"github.com/Nydauron/whistledger/scorecards"
	"github.com/Nydauron/whistledger/standings"
	"github.com/Nydauron/whistledger/stats"
)

// Build runs every stage over a raw dataset and returns a new generation.
// Stages only read their inputs and return new values, so the result shares
// nothing mutable with any earlier generation.
func Build(ctx context.Context, sheetID string, raw cache.RawDataset, tracker *issues.Tracker, logger *slog.Logger) (*Generation, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tracker == nil {
		tracker = issues.NewTracker(nil)
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldRunID, runID))
	started := time.Now()

	hash, err := cache.RawHash(raw)
	if err != nil {
		return nil, err
	}

	players := make([]identity.Player, 0, len(raw.Players))
	for _, e := range raw.Players {
		players = append(players, e.Value)
	}
	resolver, err := identity.NewResolver(players, tracker)
	if err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}

	entries := make([]metadata.Entry, 0, len(raw.Tournaments))
	for _, e := range raw.Tournaments {
		entries = append(entries, e.Value)
	}
	loader := &scorecards.Loader{
		Players:     resolver,
		Tournaments: metadata.NewResolver(entries, tracker),
		Sink:        tracker,
	}

	var rows []scorecards.Row
	names, bySheet := scorecardSheets(raw.Scorecards)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheetRows := loader.LoadSheet(name, bySheet[name])
		logger.Debug("scorecard sheet loaded",
			logging.String(logging.FieldSheet, name),
			logging.Int("records", len(bySheet[name])),
			logging.Int("rows", len(sheetRows)))
		rows = append(rows, sheetRows...)
	}

	games := reconcile.Games(rows, tracker)
	logger.Debug("partnerships reconciled", logging.Int("rows", len(rows)), logging.Int("games", len(games)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tournaments := standings.Structure(games)
	tieBreaks := metadata.IndexTieBreaks(tieBreakRows(raw), standings.EntrantKey(resolver))
	standings.Calculate(tournaments, tieBreaks)
	tournaments = models.Chronological(tournaments)
	logger.Debug("standings calculated", logging.Int("tournaments", len(tournaments)))

	result := stats.Aggregate(tournaments)
	logger.Debug("statistics aggregated",
		logging.Int("players", len(result.Players)),
		logging.Int("pairs", len(result.Pairs)))

	gen := &Generation{
		RunID:       runID,
		SheetID:     sheetID,
		BuiltAt:     started,
		RawHash:     hash,
		Raw:         raw,
		hasRaw:      true,
		Resolver:    resolver,
		Tournaments: tournaments,
		Stats:       result,
		Issues:      tracker.Issues(),
	}
	counts := tracker.Counts()
	logger.Info("pass complete",
		logging.String("raw_hash", hash),
		logging.Int("tournaments", len(tournaments)),
		logging.Int("players", len(result.Players)),
		logging.Int("warnings", counts[issues.SeverityWarning]),
		logging.Int("errors", counts[issues.SeverityError]),
		logging.Any("elapsed", time.Since(started).Round(time.Millisecond)))
	return gen, nil
}
