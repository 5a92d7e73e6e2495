package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger is the minimal logging surface this package needs. A
// *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// UpdateFunc fetches a fresh snapshot of the whole category from the
// cloud. Implementations must not mutate previously returned snapshots.
type UpdateFunc[S any] func(ctx context.Context) (Snapshot[S], error)

// Options configures a Coordinator.
type Options struct {
	// Interval between periodic polls. Zero disables periodic polling;
	// the coordinator then only polls on demand.
	Interval time.Duration
	// Cooldown is the refresh debounce window.
	Cooldown time.Duration
	Logger   Logger
}

// Coordinator synchronises one category's device state with the cloud.
// All methods are safe for concurrent use.
type Coordinator[S any] struct {
	name     string
	update   UpdateFunc[S]
	interval time.Duration
	logger   Logger

	refresh *debouncer

	ctx    context.Context
	cancel context.CancelFunc

	// pollMu serialises polls so a periodic tick, a debounced refresh
	// and a confirmation never interleave their cache swaps.
	pollMu sync.Mutex

	mu             sync.RWMutex
	data           Snapshot[S]
	healthy        bool
	everPolled     bool
	lastUpdated    time.Time
	listeners      []func(Snapshot[S])
	onAvailability func(bool)
	closed         bool

	confirmMu    sync.Mutex
	confirmTimer *time.Timer
}

// New creates a coordinator. Start must be called before it serves data.
func New[S any](name string, update UpdateFunc[S], opts Options) *Coordinator[S] {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Second
	}
	c := &Coordinator[S]{
		name:     name,
		update:   update,
		interval: opts.Interval,
		logger:   opts.Logger,
		data:     Snapshot[S]{},
	}
	c.refresh = newDebouncer(opts.Cooldown, func() {
		ctx, ok := c.runCtx()
		if !ok {
			c.logger.Debug("refresh before start dropped", "coordinator", c.name)
			return
		}
		if err := c.poll(ctx); err != nil {
			c.logger.Warn("debounced refresh failed", "coordinator", c.name, "error", err)
		}
	})
	return c
}

// runCtx returns the polling context set by Start. Refresh and
// confirmation callbacks fire from timers and may race Start; before it
// runs there is nothing to poll against and they bail out.
func (c *Coordinator[S]) runCtx() (context.Context, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ctx == nil {
		return nil, false
	}
	return c.ctx, true
}

// Name returns the coordinator's category label.
func (c *Coordinator[S]) Name() string { return c.name }

// Start performs the initial poll and, when an interval is configured,
// launches the periodic polling loop. The loop stops when ctx is
// cancelled or Close is called.
func (c *Coordinator[S]) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	if err := c.poll(c.ctx); err != nil {
		return fmt.Errorf("initial poll of %s: %w", c.name, err)
	}

	if c.interval > 0 {
		go c.loop()
	}
	return nil
}

func (c *Coordinator[S]) loop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.poll(c.ctx); err != nil {
				c.logger.Warn("periodic poll failed", "coordinator", c.name, "error", err)
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// RequestRefresh asks for a poll. The request is debounced: it never
// polls immediately, and a burst of requests during the cooldown yields
// a single poll.
func (c *Coordinator[S]) RequestRefresh() {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}
	if c.refresh.Trigger() {
		c.logger.Debug("refresh scheduled", "coordinator", c.name)
	}
}

// poll fetches a snapshot and publishes it. On failure the previous
// snapshot stays in place and only the health flag drops.
func (c *Coordinator[S]) poll(ctx context.Context) error {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	snap, err := c.update(ctx)
	if err != nil {
		c.setHealth(false)
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	c.cancelConfirm()

	c.mu.Lock()
	c.data = snap
	c.everPolled = true
	c.lastUpdated = time.Now()
	listeners := append([]func(Snapshot[S]){}, c.listeners...)
	c.mu.Unlock()

	c.setHealth(true)
	for _, fn := range listeners {
		fn(snap)
	}
	c.logger.Debug("poll complete", "coordinator", c.name, "devices", len(snap))
	return nil
}

func (c *Coordinator[S]) setHealth(healthy bool) {
	c.mu.Lock()
	changed := c.healthy != healthy
	c.healthy = healthy
	cb := c.onAvailability
	c.mu.Unlock()
	if changed && cb != nil {
		cb(healthy)
	}
}

// Data returns the current snapshot. Callers must treat it as read-only.
func (c *Coordinator[S]) Data() Snapshot[S] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// Device returns one entry from the current snapshot.
func (c *Coordinator[S]) Device(id string) (Entry[S], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[id]
	return e, ok
}

// Healthy reports whether the most recent poll succeeded.
func (c *Coordinator[S]) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy && c.everPolled
}

// LastUpdated returns the time of the last successful poll.
func (c *Coordinator[S]) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// AddListener registers fn to run after every published state change,
// both polls and optimistic patches. Must be called before Start.
func (c *Coordinator[S]) AddListener(fn func(Snapshot[S])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// SetOnAvailability registers fn to run on health transitions. Must be
// called before Start.
func (c *Coordinator[S]) SetOnAvailability(fn func(bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAvailability = fn
}

// ApplyPatch rewrites one sub-device's state through fn and publishes
// the patched snapshot. Returns false when the device or sub-device is
// not in the snapshot.
func (c *Coordinator[S]) ApplyPatch(deviceID string, subID int, fn func(S) S) bool {
	return c.applyPatch(deviceID, []int{subID}, fn)
}

// ApplyPatchAll rewrites the listed sub-devices (all of them when
// subIDs is nil) through fn and publishes the patched snapshot.
func (c *Coordinator[S]) ApplyPatchAll(deviceID string, subIDs []int, fn func(S) S) bool {
	return c.applyPatch(deviceID, subIDs, fn)
}

func (c *Coordinator[S]) applyPatch(deviceID string, subIDs []int, fn func(S) S) bool {
	c.mu.Lock()
	entry, ok := c.data[deviceID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	patched := cloneEntry(entry)
	if subIDs == nil {
		for id := range patched.Subs {
			subIDs = append(subIDs, id)
		}
	}
	matched := false
	for _, id := range subIDs {
		if s, ok := patched.Subs[id]; ok {
			patched.Subs[id] = fn(s)
			matched = true
		}
	}
	if !matched {
		c.mu.Unlock()
		return false
	}

	snap := cloneSnapshot(c.data)
	snap[deviceID] = patched
	c.data = snap
	listeners := append([]func(Snapshot[S]){}, c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return true
}

// ScheduleConfirm arms a confirmation poll after delay. A newer call
// replaces a pending one, and a successful poll cancels it.
func (c *Coordinator[S]) ScheduleConfirm(delay time.Duration) {
	c.confirmMu.Lock()
	defer c.confirmMu.Unlock()
	if c.confirmTimer != nil {
		c.confirmTimer.Stop()
	}
	c.confirmTimer = time.AfterFunc(delay, func() {
		ctx, ok := c.runCtx()
		if !ok {
			return
		}
		if err := c.poll(ctx); err != nil {
			c.logger.Warn("confirmation poll failed", "coordinator", c.name, "error", err)
		}
	})
}

func (c *Coordinator[S]) cancelConfirm() {
	c.confirmMu.Lock()
	defer c.confirmMu.Unlock()
	if c.confirmTimer != nil {
		c.confirmTimer.Stop()
		c.confirmTimer = nil
	}
}

// Close stops the polling loop and any pending timers.
func (c *Coordinator[S]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.refresh.Stop()
	c.cancelConfirm()
}
