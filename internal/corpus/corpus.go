// Package corpus aggregates checklist tasks across the whole vault into an
// immutable snapshot consumed by query evaluation.
package corpus

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/tasks"
)

// Snapshot is one point-in-time view of every task in the vault. Tasks are
// ordered by document walk order, then line number within each document.
type Snapshot struct {
	Tasks   []tasks.Task
	ByPath  map[string][]tasks.Task
	BuiltAt time.Time
}

// Aggregator rebuilds and publishes corpus snapshots. Readers always see a
// complete snapshot; rebuilds swap the pointer atomically.
type Aggregator struct {
	store  storage.Provider
	logger *slog.Logger
	snap   atomic.Pointer[Snapshot]
}

// NewAggregator creates an Aggregator with an empty initial snapshot.
func NewAggregator(store storage.Provider, logger *slog.Logger) *Aggregator {
	a := &Aggregator{store: store, logger: logger}
	a.snap.Store(&Snapshot{ByPath: map[string][]tasks.Task{}})
	return a
}

// Snapshot returns the current snapshot. Never nil.
func (a *Aggregator) Snapshot() *Snapshot {
	return a.snap.Load()
}

// Rebuild walks the vault, extracts tasks per document in parallel, and
// publishes a new snapshot. Per-document read failures are logged and
// skipped; extraction itself is pure and cannot fail.
func (a *Aggregator) Rebuild(ctx context.Context) error {
	metas, err := a.store.List("")
	if err != nil {
		return err
	}

	// Extraction is independent per document; results are assembled in
	// listing order so snapshots stay deterministic.
	results := make([][]tasks.Task, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, m := range metas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, readErr := a.store.Read(m.Path)
			if readErr != nil {
				a.logger.Warn("corpus: read failed",
					slog.String("path", m.Path),
					slog.String("error", readErr.Error()))
				return nil
			}
			results[i] = tasks.ExtractTasks(string(data), m.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	snap := &Snapshot{
		ByPath:  make(map[string][]tasks.Task),
		BuiltAt: time.Now(),
	}
	for _, ts := range results {
		if len(ts) == 0 {
			continue
		}
		snap.Tasks = append(snap.Tasks, ts...)
		snap.ByPath[ts[0].FilePath] = ts
	}
	a.snap.Store(snap)

	a.logger.Debug("corpus: rebuilt",
		slog.Int("documents", len(snap.ByPath)),
		slog.Int("tasks", len(snap.Tasks)))
	return nil
}
