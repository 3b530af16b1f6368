package queue

import (
	"context"
	"fmt"
	"log"
	"time"
)

// GarbageCollector periodically drops dead-lettered parse jobs that
// are past the retention window. A job that sat in the DLQ that long
// is operator noise, not work to recover.
type GarbageCollector struct {
	dlqPurger DLQPurger
	interval  time.Duration
	retention time.Duration
}

// NewGarbageCollector builds a collector over any DLQPurger. A nil
// purger yields a collector whose sweeps are no-ops.
func NewGarbageCollector(purger DLQPurger, interval time.Duration, retention time.Duration) *GarbageCollector {
	return &GarbageCollector{
		dlqPurger: purger,
		interval:  interval,
		retention: retention,
	}
}

// Start sweeps on the configured interval until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := gc.collect(ctx); err != nil {
				log.Printf("DLQ GC error: %v", err)
			}
		}
	}
}

// collect runs one sweep, bounded so a stuck broker cannot wedge the
// loop.
func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.dlqPurger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	n, err := gc.dlqPurger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("DLQ purge: %w", err)
	}
	if n > 0 {
		log.Printf("DLQ GC purged %d message(s) older than %v", n, gc.retention)
	}
	return nil
}
