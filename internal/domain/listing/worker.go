package listing

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiryWorker moves approved listings past their expiry date to expired
type ExpiryWorker struct {
	repo     Repository
	interval time.Duration
	stopCh   chan struct{}
	now      func() time.Time
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(repo Repository, interval time.Duration) *ExpiryWorker {
	if interval == 0 {
		interval = time.Hour
	}
	return &ExpiryWorker{
		repo:     repo,
		interval: interval,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start begins the background worker
func (w *ExpiryWorker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting listing expiry worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *ExpiryWorker) Stop() {
	log.Info().Msg("Stopping listing expiry worker...")
	close(w.stopCh)
}

func (w *ExpiryWorker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.RunOnce()

	for {
		select {
		case <-ticker.C:
			w.RunOnce()
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep
func (w *ExpiryWorker) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.repo.ExpireDue(ctx, w.now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire listings")
		return 0
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Expired listings")
	}
	return count
}
