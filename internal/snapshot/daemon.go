package snapshot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arkilian/sindex/internal/notify"
)

// Daemon writes catalog snapshots on a fixed interval.
type Daemon struct {
	writer   *Writer
	interval time.Duration

	notifier *notify.Notifier
	changes  *notify.Subscriber
	dirty    atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDaemon creates a new snapshot daemon. A non-positive interval defaults to 5 minutes.
func NewDaemon(writer *Writer, interval time.Duration) *Daemon {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Daemon{
		writer:   writer,
		interval: interval,
	}
}

// WatchChanges makes periodic snapshots conditional: a tick writes only if
// the notifier reported a catalog change since the last snapshot. It must be
// called before Start.
func (d *Daemon) WatchChanges(n *notify.Notifier) {
	d.notifier = n
}

// Start begins the snapshot loop. It runs until the context is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("snapshot: daemon is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.done = make(chan struct{})
	if d.notifier != nil {
		d.changes = d.notifier.Subscribe("")
		// Changes made before Start are not covered by any snapshot yet.
		d.dirty.Store(true)
	}
	d.mu.Unlock()

	go d.run(ctx)
	return nil
}

// Stop stops the loop and writes one final snapshot so that no catalog change
// made since the last tick is lost.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cancel()
	<-d.done
	d.running = false
	if d.changes != nil {
		d.notifier.Unsubscribe(d.changes.ID)
		d.changes = nil
	}

	if _, err := d.writer.Write(ctx); err != nil {
		return fmt.Errorf("snapshot: final snapshot failed: %w", err)
	}
	d.dirty.Store(false)
	return nil
}

// run is the main snapshot loop.
func (d *Daemon) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	var changes <-chan notify.Event
	if d.changes != nil {
		changes = d.changes.Ch
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			d.dirty.Store(true)
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if d.notifier != nil && !d.dirty.Swap(false) {
		return
	}
	if _, err := d.writer.Write(ctx); err != nil {
		// Retry on the next tick.
		d.dirty.Store(true)
		log.Printf("snapshot: periodic snapshot failed: %v", err)
	}
}
