package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arealis/stac-search-core/internal/runtime"
)

// Refresher periodically rebuilds the collection summaries snapshot.
// Ingestion happens outside this service, so the snapshot's only
// invalidation point is this scheduled refresh.
type Refresher struct {
	summaries *runtime.Summaries
	logger    *slog.Logger

	// Configuration
	interval time.Duration

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// RefresherConfig holds configuration for the refresher.
type RefresherConfig struct {
	Summaries *runtime.Summaries
	Logger    *slog.Logger
	Interval  time.Duration
}

// NewRefresher creates a new summaries refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Refresher{
		summaries: cfg.Summaries,
		logger:    logger,
		interval:  interval,
	}
}

// Start begins the refresh loop.
// It runs until Stop is called or context is cancelled.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	r.logger.Info("summaries refresher starting", "interval", r.interval)

	go r.refreshLoop(ctx)
	return nil
}

// Stop gracefully stops the refresher.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopCh)
	r.mu.Unlock()

	<-r.doneCh

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.logger.Info("summaries refresher stopped")
}

func (r *Refresher) refreshLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher context cancelled")
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			start := time.Now()
			if err := r.summaries.Refresh(ctx); err != nil {
				// Keep serving the previous snapshot
				r.logger.Error("summaries refresh failed", "error", err)
				continue
			}
			r.logger.Debug("summaries refreshed", "took", time.Since(start))
		}
	}
}
