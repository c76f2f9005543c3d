// Package issues collects the non-fatal data problems found while a pass
// processes scorecard sheets.
//
// Historical sheets are preserved rather than rejected: every stage records what
// it kept, flagged, or dropped into a Sink, and the list for a pass is exported
// alongside the derived data.
package issues

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue types recorded by the pipeline stages.
const (
	TypeUnknownSchema                = "unknown_schema"
	TypeMissingTournamentID          = "missing_tournament_id"
	TypeMissingTournamentMetadata    = "missing_tournament_metadata"
	TypeMissingTournamentYear        = "missing_tournament_year"
	TypeMissingPlayerID              = "missing_player_id"
	TypeInvalidRound                 = "invalid_round"
	TypeInvalidTable                 = "invalid_table"
	TypeInvalidTricks                = "invalid_tricks"
	TypeInvalidTrumpSuit             = "invalid_trump_suit"
	TypeInvalidTieBreak              = "invalid_tie_break"
	TypeTrickSumMismatch             = "trick_sum_mismatch"
	TypeInconsistencyNote            = "inconsistency_note"
	TypeTablePlayerCountMismatch     = "table_player_count_mismatch"
	TypeReverseEngineerTrickMismatch = "reverse_engineer_trick_mismatch"
	TypeDuplicateSeat                = "duplicate_seat"
	TypeDuplicatePlayer              = "duplicate_player"
)

// Location points at where an issue was found. Sheet rows are 1-based data rows
// (the header is not counted).
type Location struct {
	Sheet      string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Row        int    `json:"row,omitempty" yaml:"row,omitempty"`
	Tournament string `json:"tournament,omitempty" yaml:"tournament,omitempty"`
	Round      int    `json:"round,omitempty" yaml:"round,omitempty"`
	Table      int    `json:"table,omitempty" yaml:"table,omitempty"`
}

func (l Location) String() string {
	parts := make([]string, 0, 5)
	if l.Sheet != "" {
		parts = append(parts, l.Sheet)
	}
	if l.Row > 0 {
		parts = append(parts, fmt.Sprintf("row %d", l.Row))
	}
	if l.Tournament != "" {
		parts = append(parts, l.Tournament)
	}
	if l.Round > 0 {
		parts = append(parts, fmt.Sprintf("round %d", l.Round))
	}
	if l.Table > 0 {
		parts = append(parts, fmt.Sprintf("table %d", l.Table))
	}
	return strings.Join(parts, " / ")
}

type Issue struct {
	Type     string   `json:"type" yaml:"type"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Location Location `json:"location" yaml:"location"`
	Player   string   `json:"player,omitempty" yaml:"player,omitempty"`
	Game     string   `json:"game,omitempty" yaml:"game,omitempty"`
}

func Warning(kind string, loc Location, format string, args ...any) Issue {
	return Issue{Type: kind, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Location: loc}
}

func Error(kind string, loc Location, format string, args ...any) Issue {
	return Issue{Type: kind, Severity: SeverityError, Message: fmt.Sprintf(format, args...), Location: loc}
}

// Sink receives issues from pipeline stages.
//
// RecordOnce records the issue only the first time key is seen during the
// current pass and reports whether it was recorded. Keys are opaque to the sink;
// callers build them from the issue type and the value being deduplicated.
type Sink interface {
	Record(issue Issue)
	RecordOnce(key string, issue Issue) bool
}

// Tracker is the pass-lifetime Sink. It is append-only between calls to Reset.
type Tracker struct {
	mu     sync.Mutex
	issues []Issue
	seen   map[string]struct{}
	logger *slog.Logger
}

// NewTracker returns an empty tracker. A nil logger disables issue logging.
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{seen: map[string]struct{}{}, logger: logger}
}

func (t *Tracker) Record(issue Issue) {
	t.mu.Lock()
	t.issues = append(t.issues, issue)
	t.mu.Unlock()
	t.log(issue)
}

func (t *Tracker) RecordOnce(key string, issue Issue) bool {
	t.mu.Lock()
	if _, ok := t.seen[key]; ok {
		t.mu.Unlock()
		return false
	}
	t.seen[key] = struct{}{}
	t.issues = append(t.issues, issue)
	t.mu.Unlock()
	t.log(issue)
	return true
}

// Reset clears recorded issues and dedup keys. Called at the start of each pass.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issues = nil
	t.seen = map[string]struct{}{}
}

// Issues returns a copy of the recorded issues in recording order.
func (t *Tracker) Issues() []Issue {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Issue, len(t.issues))
	copy(out, t.issues)
	return out
}

// Counts returns the number of recorded issues per severity.
func (t *Tracker) Counts() map[Severity]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := map[Severity]int{}
	for _, issue := range t.issues {
		counts[issue.Severity]++
	}
	return counts
}

func (t *Tracker) log(issue Issue) {
	if t.logger == nil {
		return
	}
	level := slog.LevelWarn
	if issue.Severity == SeverityError {
		level = slog.LevelError
	}
	attrs := []any{
		slog.String("issue_type", issue.Type),
		slog.String("location", issue.Location.String()),
	}
	if issue.Player != "" {
		attrs = append(attrs, slog.String("player", issue.Player))
	}
	t.logger.Log(context.Background(), level, issue.Message, attrs...)
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Record(Issue) {}
func (Discard) RecordOnce(string, Issue) bool { return false }
