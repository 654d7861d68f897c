package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/models"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadRetryInterval is how long a failed first load is reported to
// later callers before the source is tried again.
const DefaultLoadRetryInterval = 2 * time.Second

// Snapshot is one loaded catalog. It is never modified after Reload publishes it.
type Snapshot struct {
	Entries  []*models.CatalogEntry
	Version  uint64
	LoadedAt time.Time
	Source   string

	byID map[int64]*models.CatalogEntry
}

// Entry looks up an entry by catalog id.
func (s *Snapshot) Entry(id int64) (*models.CatalogEntry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Cache holds the active catalog snapshot. Readers never block; reloads are
// serialized and publish a complete new snapshot with a single pointer swap.
type Cache struct {
	source   Source
	analyzer morphology.Analyzer
	logger   logger.Logger

	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
	version uint64

	loads         singleflight.Group
	failMu        sync.Mutex
	lastFailure   error
	failedAt      time.Time
	retryInterval time.Duration
}

func NewCache(source Source, analyzer morphology.Analyzer, log logger.Logger) *Cache {
	return &Cache{
		source:        source,
		analyzer:      analyzer,
		logger:        logger.Component(log, "catalog-cache"),
		retryInterval: DefaultLoadRetryInterval,
	}
}

// SetLoadRetryInterval changes how long a failed first load is remembered.
// Zero retries on every call.
func (c *Cache) SetLoadRetryInterval(d time.Duration) {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	c.retryInterval = d
}

// Snapshot returns the active snapshot, or nil before the first successful load.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Load returns the active snapshot, loading it on first use. Concurrent
// callers share one fetch, and a failed fetch is returned to later callers
// until the retry interval passes.
func (c *Cache) Load(ctx context.Context) (*Snapshot, error) {
	if s := c.current.Load(); s != nil {
		return s, nil
	}
	if err := c.recentFailure(); err != nil {
		return nil, err
	}

	ch := c.loads.DoChan("load", func() (interface{}, error) {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		if s := c.current.Load(); s != nil {
			return s, nil
		}
		snap, err := c.reloadLocked(ctx)
		if err != nil && ctx.Err() == nil {
			c.rememberFailure(err)
		}
		return snap, err
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewCatalogUnavailableError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (c *Cache) recentFailure() error {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	if c.lastFailure == nil || time.Since(c.failedAt) >= c.retryInterval {
		return nil
	}
	return c.lastFailure
}

func (c *Cache) rememberFailure(err error) {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	c.lastFailure = err
	c.failedAt = time.Now()
}

// Reload fetches the catalog again. If it fails the previous snapshot stays
// active and CATALOG_LOAD_FAILED is returned; with no previous snapshot the
// error is CATALOG_UNAVAILABLE.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.reloadLocked(ctx)
}

func (c *Cache) reloadLocked(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	records, err := c.source.Fetch(ctx)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("failed").Inc()
		if prev := c.current.Load(); prev != nil {
			metrics.Degradations.WithLabelValues(metrics.DegradationCatalogStale).Inc()
			c.logger.Warn("catalog reload failed, keeping previous snapshot", map[string]interface{}{
				"source":  c.source.Name(),
				"version": prev.Version,
				"error":   err,
			})
			return prev, apperrors.NewCatalogLoadFailedError(c.source.Name(), err)
		}
		c.logger.Error("catalog load failed", map[string]interface{}{
			"source": c.source.Name(),
			"error":  err,
		})
		return nil, apperrors.NewCatalogUnavailableError(fmt.Errorf("%s: %w", c.source.Name(), err))
	}

	built := BuildEntries(ctx, records, c.analyzer)

	snap := &Snapshot{
		Entries:  built.Entries,
		LoadedAt: time.Now().UTC(),
		Source:   c.source.Name(),
		byID:     make(map[int64]*models.CatalogEntry, len(built.Entries)),
	}
	for _, e := range built.Entries {
		snap.byID[e.ID] = e
	}
	c.version++
	snap.Version = c.version
	c.current.Store(snap)
	c.rememberFailure(nil)

	metrics.CatalogReloads.WithLabelValues("success").Inc()
	metrics.CatalogEntries.Set(float64(len(snap.Entries)))
	if built.MorphologyFailures > 0 {
		metrics.Degradations.WithLabelValues(metrics.DegradationMorphology).Add(float64(built.MorphologyFailures))
	}
	c.logger.Info("catalog loaded", map[string]interface{}{
		"source":             snap.Source,
		"version":            snap.Version,
		"entries":            len(snap.Entries),
		"skipped":            built.Skipped,
		"morphologyFailures": built.MorphologyFailures,
		"durationMs":         time.Since(start).Milliseconds(),
	})
	return snap, nil
}

// StartAutoReload reloads every interval until ctx is done. Failures are
// logged; the previous snapshot keeps serving.
func (c *Cache) StartAutoReload(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = c.Reload(ctx)
			}
		}
	}()
}
