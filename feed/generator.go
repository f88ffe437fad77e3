package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/meetverse/eventcal/recurrence"
	"github.com/meetverse/eventcal/storage"
)

// Generator expands every stored event over a rolling horizon and renders
// the result as a feed. It serves the live /calendar.ics and /feed.atom
// handlers and the scheduled on-disk refresh.
type Generator struct {
	store   storage.Storage
	engine  *recurrence.Engine
	logger  *slog.Logger
	name    string
	baseURL string
	horizon int // days

	now func() time.Time
}

// NewGenerator wires a feed generator. horizonDays bounds how far ahead
// the feed looks; zero falls back to one year.
func NewGenerator(store storage.Storage, engine *recurrence.Engine, logger *slog.Logger, name, baseURL string, horizonDays int) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if horizonDays <= 0 {
		horizonDays = 365
	}
	return &Generator{
		store:   store,
		engine:  engine,
		logger:  logger,
		name:    name,
		baseURL: baseURL,
		horizon: horizonDays,
		now:     time.Now,
	}
}

// Occurrences expands all events from today through the horizon, with
// overrides applied, sorted by start time.
func (g *Generator) Occurrences(ctx context.Context) ([]recurrence.Occurrence, error) {
	events, err := g.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	start := recurrence.DateOf(g.now())
	end := start.AddDays(g.horizon)

	var all []recurrence.Occurrence
	for _, event := range events {
		series := event.Series()
		occurrences := g.engine.Expand(series, start, end)
		all = append(all, recurrence.ApplyOverrides(occurrences, series)...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return all, nil
}

// WriteICS renders the current feed window as iCalendar.
func (g *Generator) WriteICS(ctx context.Context, w io.Writer) error {
	occurrences, err := g.Occurrences(ctx)
	if err != nil {
		return err
	}
	return EncodeICS(w, occurrences, g.name, g.now())
}

// WriteAtom renders the current feed window as Atom.
func (g *Generator) WriteAtom(ctx context.Context, w io.Writer) error {
	occurrences, err := g.Occurrences(ctx)
	if err != nil {
		return err
	}
	return EncodeAtom(w, occurrences, g.name, g.baseURL, g.now())
}

// RefreshFile regenerates the on-disk public ICS file, writing to a temp
// file first so subscribers never see a torn feed.
func (g *Generator) RefreshFile(ctx context.Context, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".feed-*.ics")
	if err != nil {
		return fmt.Errorf("create temp feed file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := g.WriteICS(ctx, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp feed file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace feed file: %w", err)
	}

	g.logger.Info("feed file refreshed", "path", path)
	return nil
}
