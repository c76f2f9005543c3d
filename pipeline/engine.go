// Package pipeline runs a full pass over the scorecard sheets and publishes
// the result as an immutable generation.
//
// A pass always starts from the complete raw dataset; there is no incremental
// update. The Engine keeps the latest generation behind an atomic pointer, so
// readers keep using the previous generation until a new pass has finished.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Nydauron/whistledger/cache"
	"github.com/Nydauron/whistledger/issues"
	"github.com/Nydauron/whistledger/logging"
)

// ErrPassInProgress is returned when a pass is started while another is still
// running on the same engine.
var ErrPassInProgress = errors.New("a pass is already in progress")

// Engine owns the current generation and runs passes one at a time.
type Engine struct {
	current atomic.Pointer[Generation]
	pass    sync.Mutex
	tracker *issues.Tracker
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the clock used for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine with no generation yet.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	logger = logging.NewComponentLogger(logger, "pipeline")
	e := &Engine{
		tracker: issues.NewTracker(logging.NewComponentLogger(logger, "issues")),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the latest complete generation, or nil before the first
// pass.
func (e *Engine) Current() *Generation {
	return e.current.Load()
}

// run holds the pass lock, resets the issue tracker, and publishes the
// generation produced by fn.
func (e *Engine) run(fn func(tracker *issues.Tracker) (*Generation, error)) (*Generation, error) {
	if !e.pass.TryLock() {
		return nil, ErrPassInProgress
	}
	defer e.pass.Unlock()

	e.tracker.Reset()
	gen, err := fn(e.tracker)
	if err != nil {
		return nil, err
	}
	e.current.Store(gen)
	return gen, nil
}

// Process collects the input and runs a full pass.
func (e *Engine) Process(ctx context.Context, in Input) (*Generation, error) {
	return e.run(func(tracker *issues.Tracker) (*Generation, error) {
		raw, err := Collect(in, tracker)
		if err != nil {
			return nil, err
		}
		return Build(ctx, in.SheetID, raw, tracker, e.logger)
	})
}

// Reprocess runs a full pass over an already collected raw dataset.
func (e *Engine) Reprocess(ctx context.Context, sheetID string, raw cache.RawDataset) (*Generation, error) {
	return e.run(func(tracker *issues.Tracker) (*Generation, error) {
		return Build(ctx, sheetID, raw, tracker, e.logger)
	})
}

// Load runs a pass backed by the store. When the store holds a stats document
// computed from the same raw input by the current algorithm, the generation is
// restored from it; otherwise the pass is computed and both documents are
// written. hit reports which happened.
//
// A computed generation is published even when saving it fails; Load then
// returns it together with the save error (cache.ErrLocked when another
// process holds the store).
func (e *Engine) Load(ctx context.Context, in Input, store *cache.Store) (gen *Generation, hit bool, err error) {
	var saveErr error
	gen, err = e.run(func(tracker *issues.Tracker) (*Generation, error) {
		raw, err := Collect(in, tracker)
		if err != nil {
			return nil, err
		}
		hash, err := cache.RawHash(raw)
		if err != nil {
			return nil, err
		}

		doc, ok, err := store.LookupStats(ctx, in.SheetID, hash)
		if err != nil {
			return nil, err
		}
		if ok {
			e.logger.Info("stats cache hit; skipping recomputation", logging.String("raw_hash", hash))
			hit = true
			return FromStats(in.SheetID, doc, &raw)
		}

		e.logger.Info("stats cache miss", logging.String("raw_hash", hash))
		built, err := Build(ctx, in.SheetID, raw, tracker, e.logger)
		if err != nil {
			return nil, err
		}
		saveErr = e.save(ctx, store, built)
		return built, nil
	})
	if err != nil {
		return nil, hit, err
	}
	if saveErr != nil {
		return gen, hit, fmt.Errorf("save cache documents: %w", saveErr)
	}
	return gen, hit, nil
}

func (e *Engine) save(ctx context.Context, store *cache.Store, gen *Generation) error {
	if err := store.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			e.logger.Warn("release cache lock", logging.Error(err))
		}
	}()

	now := e.now()
	rawDoc, err := gen.RawDocument(now)
	if err != nil {
		return err
	}
	if err := store.PutRaw(ctx, rawDoc); err != nil {
		return err
	}
	return store.PutStats(ctx, gen.SheetID, gen.StatsDocument(now))
}

// ExportRaw writes the current generation's raw document.
func (e *Engine) ExportRaw(w io.Writer) error {
	gen := e.Current()
	if gen == nil {
		return errors.New("export raw cache: no generation")
	}
	doc, err := gen.RawDocument(e.now())
	if err != nil {
		return fmt.Errorf("export raw cache: %w", err)
	}
	return writeDocument(w, doc)
}

// ImportRaw reads a raw document and runs a full pass over it.
func (e *Engine) ImportRaw(ctx context.Context, r io.Reader) (*Generation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read raw cache: %w", err)
	}
	doc, err := cache.UnmarshalRaw(data)
	if err != nil {
		return nil, err
	}
	return e.run(func(tracker *issues.Tracker) (*Generation, error) {
		// Collection issues come from sheets the document no longer holds.
		for _, issue := range doc.DataIssues {
			if collectedIssue(issue.Type) {
				tracker.Record(issue)
			}
		}
		return Build(ctx, doc.Source.SheetID, doc.Dataset(), tracker, e.logger)
	})
}

// ExportStats writes the current generation's stats document.
func (e *Engine) ExportStats(w io.Writer) error {
	gen := e.Current()
	if gen == nil {
		return errors.New("export stats cache: no generation")
	}
	return writeDocument(w, gen.StatsDocument(e.now()))
}

// ImportStats publishes a generation restored from a stats document. It does
// not recompute anything, so the document is trusted as is.
func (e *Engine) ImportStats(sheetID string, r io.Reader) (*Generation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stats cache: %w", err)
	}
	doc, err := cache.UnmarshalStats(data)
	if err != nil {
		return nil, err
	}
	return e.run(func(*issues.Tracker) (*Generation, error) {
		return FromStats(sheetID, doc, nil)
	})
}

func writeDocument(w io.Writer, doc any) error {
	data, err := cache.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write cache document: %w", err)
	}
	return nil
}
