package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSource produces canned snapshots and counts polls.
type fakeSource struct {
	polls atomic.Int32
	fail  atomic.Bool
	value atomic.Int32
}

func (f *fakeSource) update(ctx context.Context) (Snapshot[int], error) {
	f.polls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("cloud unreachable")
	}
	v := int(f.value.Load())
	return Snapshot[int]{
		"d1": {Info: DeviceInfo{ID: "d1"}, Subs: map[int]int{1: v, 2: v + 1}},
	}, nil
}

func newTestCoordinator(t *testing.T, src *fakeSource, opts Options) *Coordinator[int] {
	t.Helper()
	c := New("test", src.update, opts)
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStartPerformsInitialPoll(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{Cooldown: 10 * time.Millisecond})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !c.Healthy() {
		t.Error("expected healthy after initial poll")
	}
	entry, ok := c.Device("d1")
	if !ok || entry.Subs[1] != 0 || entry.Subs[2] != 1 {
		t.Errorf("unexpected initial entry %+v", entry)
	}
}

func TestStartFailsWhenInitialPollFails(t *testing.T) {
	src := &fakeSource{}
	src.fail.Store(true)
	c := newTestCoordinator(t, src, Options{})

	err := c.Start(context.Background())
	if !errors.Is(err, ErrUpdateFailed) {
		t.Errorf("expected ErrUpdateFailed, got %v", err)
	}
	if c.Healthy() {
		t.Error("must not be healthy after failed initial poll")
	}
}

func TestFailedPollKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{}
	var mu sync.Mutex
	var transitions []bool
	c := newTestCoordinator(t, src, Options{Cooldown: 5 * time.Millisecond})
	c.SetOnAvailability(func(up bool) {
		mu.Lock()
		transitions = append(transitions, up)
		mu.Unlock()
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	src.fail.Store(true)
	c.RequestRefresh()
	waitFor(t, func() bool { return !c.Healthy() }, "coordinator never became unhealthy")

	// Snapshot survives the failure.
	entry, ok := c.Device("d1")
	if !ok || entry.Subs[1] != 0 {
		t.Errorf("snapshot lost after failed poll: %+v", entry)
	}

	src.fail.Store(false)
	src.value.Store(7)
	c.RequestRefresh()
	waitFor(t, func() bool { return c.Healthy() }, "coordinator never recovered")

	entry, _ = c.Device("d1")
	if entry.Subs[1] != 7 {
		t.Errorf("recovered snapshot = %+v, want value 7", entry)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) >= 3
	}, "availability transitions never observed")
	mu.Lock()
	defer mu.Unlock()
	if transitions[0] != true || transitions[1] != false || transitions[2] != true {
		t.Errorf("availability transitions = %v, want [true false true]", transitions)
	}
}

func TestRequestRefreshDebounces(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{Cooldown: 50 * time.Millisecond})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	initial := src.polls.Load()

	// A burst of requests within the cooldown.
	for i := 0; i < 10; i++ {
		c.RequestRefresh()
	}

	// Nothing happens immediately.
	if got := src.polls.Load(); got != initial {
		t.Errorf("refresh polled immediately: %d polls", got-initial)
	}

	waitFor(t, func() bool { return src.polls.Load() == initial+1 }, "debounced poll never ran")
	time.Sleep(100 * time.Millisecond)
	if got := src.polls.Load(); got != initial+1 {
		t.Errorf("burst of 10 requests produced %d polls, want 1", got-initial)
	}
}

func TestRequestRefreshBeforeStartIsDropped(t *testing.T) {
	src := &fakeSource{}
	var transitions atomic.Int32
	c := newTestCoordinator(t, src, Options{Cooldown: 5 * time.Millisecond})
	c.SetOnAvailability(func(bool) { transitions.Add(1) })

	// A refresh can arrive between listener wiring and Start.
	c.RequestRefresh()
	time.Sleep(30 * time.Millisecond)

	if got := src.polls.Load(); got != 0 {
		t.Errorf("refresh before Start ran %d polls, want 0", got)
	}
	if transitions.Load() != 0 {
		t.Error("refresh before Start flipped availability")
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if src.polls.Load() != 1 || !c.Healthy() {
		t.Error("coordinator did not start cleanly after dropped refresh")
	}
}

func TestPeriodicPolling(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{Interval: 20 * time.Millisecond, Cooldown: time.Millisecond})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	waitFor(t, func() bool { return src.polls.Load() >= 3 }, "periodic polls never ran")
	c.Close()
	settled := src.polls.Load()
	time.Sleep(60 * time.Millisecond)
	if src.polls.Load() != settled {
		t.Error("polling continued after Close")
	}
}

func TestApplyPatchPublishesAndNotifies(t *testing.T) {
	src := &fakeSource{}
	var notified atomic.Int32
	c := newTestCoordinator(t, src, Options{})
	c.AddListener(func(Snapshot[int]) { notified.Add(1) })
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	before := c.Data()
	if !c.ApplyPatch("d1", 1, func(v int) int { return 99 }) {
		t.Fatal("ApplyPatch returned false for existing sub")
	}

	entry, _ := c.Device("d1")
	if entry.Subs[1] != 99 {
		t.Errorf("patched value = %d", entry.Subs[1])
	}
	if entry.Subs[2] != 1 {
		t.Errorf("untouched sub changed: %d", entry.Subs[2])
	}
	// The previously published snapshot is not mutated.
	if before["d1"].Subs[1] != 0 {
		t.Error("patch mutated a published snapshot")
	}
	if notified.Load() < 2 {
		t.Errorf("listeners notified %d times, want poll + patch", notified.Load())
	}

	if c.ApplyPatch("missing", 1, func(v int) int { return v }) {
		t.Error("ApplyPatch succeeded for unknown device")
	}
	if c.ApplyPatch("d1", 42, func(v int) int { return v }) {
		t.Error("ApplyPatch succeeded for unknown sub")
	}
}

func TestApplyPatchAllDefaultsToEverySub(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	c.ApplyPatchAll("d1", nil, func(v int) int { return v + 100 })
	entry, _ := c.Device("d1")
	if entry.Subs[1] != 100 || entry.Subs[2] != 101 {
		t.Errorf("patch-all result = %+v", entry.Subs)
	}
}

func TestScheduleConfirmPollsOnceAfterDelay(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	initial := src.polls.Load()

	c.ScheduleConfirm(30 * time.Millisecond)
	if src.polls.Load() != initial {
		t.Error("confirmation polled immediately")
	}
	waitFor(t, func() bool { return src.polls.Load() == initial+1 }, "confirmation poll never ran")
}

func TestScheduleConfirmSupersededByNewerCommand(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	initial := src.polls.Load()

	c.ScheduleConfirm(20 * time.Millisecond)
	c.ScheduleConfirm(60 * time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	if src.polls.Load() != initial {
		t.Error("superseded confirmation still fired")
	}
	waitFor(t, func() bool { return src.polls.Load() == initial+1 }, "replacement confirmation never ran")
}

func TestSuccessfulPollCancelsPendingConfirm(t *testing.T) {
	src := &fakeSource{}
	c := newTestCoordinator(t, src, Options{Cooldown: time.Millisecond})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	c.ScheduleConfirm(50 * time.Millisecond)
	c.RequestRefresh()
	waitFor(t, func() bool { return src.polls.Load() >= 2 }, "refresh never ran")
	settled := src.polls.Load()

	time.Sleep(80 * time.Millisecond)
	if src.polls.Load() != settled {
		t.Error("confirmation fired despite an intervening successful poll")
	}
}
