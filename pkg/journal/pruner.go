package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// PrunerConfig contains retention settings.
type PrunerConfig struct {
	// RetentionDays is how long events are kept. 0 keeps them forever.
	RetentionDays int

	// Schedule is a standard five-field cron expression. Empty disables
	// scheduled pruning; Prune can still be called directly.
	Schedule string
}

// Pruner deletes events older than the retention period.
type Pruner struct {
	storage Storage
	config  PrunerConfig
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewPruner creates a pruner for storage.
func NewPruner(storage Storage, config PrunerConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "journal.retention"),
		now:     time.Now,
		cron:    cron.New(),
	}
}

// Prune deletes events older than the retention period and returns how many
// were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-time.Duration(p.config.RetentionDays) * 24 * time.Hour)
	deleted, err := p.storage.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune by age failed: %w", err)
	}

	p.logger.Info("pruned journal events",
		"deleted_count", deleted,
		"retention_days", p.config.RetentionDays,
		"cutoff", cutoff,
	)
	return deleted, nil
}

// Start schedules pruning until ctx is done or Stop is called. It does
// nothing when no schedule or retention period is configured.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.config.Schedule == "" || p.config.RetentionDays <= 0 {
		p.logger.Info("journal pruning not scheduled")
		return nil
	}
	if p.running {
		return nil
	}

	if _, err := p.cron.AddFunc(p.config.Schedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled journal pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.config.Schedule, err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("journal retention scheduler started",
		"schedule", p.config.Schedule,
		"retention_days", p.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("journal retention scheduler stopped")
}

// IsRunning reports whether pruning is scheduled.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled prune, or nil when not scheduled.
func (p *Pruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if !p.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
