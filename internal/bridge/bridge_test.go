package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LuterGS/shome-ha-integration/internal/coordinator"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/mqtt"
	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// fakeBroker captures retained publishes and subscription handlers.
type fakeBroker struct {
	mu       sync.Mutex
	retained map[string][]byte
	handlers map[string]mqtt.MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		retained: make(map[string][]byte),
		handlers: make(map[string]mqtt.MessageHandler),
	}
}

func (f *fakeBroker) PublishRetained(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retained[topic] = append([]byte(nil), payload...)
	return nil
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBroker) get(topic string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retained[topic]
}

// deliver feeds a message into the handler registered for pattern.
func (f *fakeBroker) deliver(t *testing.T, pattern, topic string, payload []byte) error {
	t.Helper()
	f.mu.Lock()
	handler := f.handlers[pattern]
	f.mu.Unlock()
	if handler == nil {
		t.Fatalf("no handler subscribed on %s", pattern)
	}
	return handler(topic, payload)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeLightGateway backs a real light coordinator.
type fakeLightGateway struct {
	mu     sync.Mutex
	on     map[int]bool
	polls  atomic.Int32
	writes []string
}

func newFakeLightGateway() *fakeLightGateway {
	return &fakeLightGateway{on: map[int]bool{1: false, 2: false}}
}

func wireStatus(on bool) int {
	if on {
		return 1
	}
	return 0
}

func (f *fakeLightGateway) GetLightStatus(ctx context.Context, d shome.Device) (shome.LightStatus, error) {
	f.polls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	status := shome.LightStatus{
		Groups: []shome.LightGroup{{GroupID: 1, Nickname: "Room", DeviceList: []int{1, 2}}},
	}
	for id, on := range f.on {
		status.Subs = append(status.Subs, shome.LightSub{
			SubID: id, Nickname: "Light", DeviceStatus: wireStatus(on),
		})
	}
	return status, nil
}

func (f *fakeLightGateway) SetLight(ctx context.Context, d shome.Device, subID int, state shome.OnOff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on[subID] = state == shome.On
	f.writes = append(f.writes, "sub")
	return nil
}

func (f *fakeLightGateway) SetLightGroup(ctx context.Context, d shome.Device, groupID int, state shome.OnOff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.on {
		f.on[id] = state == shome.On
	}
	f.writes = append(f.writes, "group")
	return nil
}

func (f *fakeLightGateway) SetAllLights(ctx context.Context, d shome.Device, state shome.OnOff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.on {
		f.on[id] = state == shome.On
	}
	f.writes = append(f.writes, "all")
	return nil
}

func lightTestSetup(t *testing.T) (*fakeBroker, *fakeLightGateway, *coordinator.LightCoordinator) {
	t.Helper()
	gw := newFakeLightGateway()
	devices := []shome.Device{{ThngID: "d1", Nickname: "Lights", ModelName: "IHN-1010", UniqueNum: "001"}}
	lights := coordinator.NewLightCoordinator(gw, devices, 10*time.Millisecond,
		coordinator.Options{Cooldown: 5 * time.Millisecond})
	t.Cleanup(lights.Close)

	broker := newFakeBroker()
	br := New(broker, Coordinators{Lights: lights}, 1, nopLogger{})
	if err := br.Bind(context.Background()); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if err := lights.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return broker, gw, lights
}

func TestBindPublishesStateAndAvailability(t *testing.T) {
	broker, _, _ := lightTestSetup(t)

	stateTopic := "shome/state/light/d1"
	payload := broker.get(stateTopic)
	if payload == nil {
		t.Fatalf("no retained state on %s", stateTopic)
	}

	var state lightDeviceState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("decoding state payload: %v", err)
	}
	if state.Device != "Lights" || len(state.Subs) != 2 {
		t.Errorf("state payload = %+v", state)
	}
	if len(state.Groups) != 1 || state.Groups[0].ID != 1 {
		t.Errorf("groups in payload = %+v", state.Groups)
	}

	if got := string(broker.get("shome/availability/light")); got != "online" {
		t.Errorf("availability = %q, want online", got)
	}
}

func TestCommandSwitchesLightAndRepublishes(t *testing.T) {
	broker, gw, _ := lightTestSetup(t)

	err := broker.deliver(t, "shome/command/#", "shome/command/light/d1/1",
		[]byte(`{"action":"on_off","state":"ON"}`))
	if err != nil {
		t.Fatalf("command handler error: %v", err)
	}

	gw.mu.Lock()
	writes := len(gw.writes)
	gw.mu.Unlock()
	if writes != 1 {
		t.Errorf("cloud writes = %d, want 1", writes)
	}

	var state lightDeviceState
	if err := json.Unmarshal(broker.get("shome/state/light/d1"), &state); err != nil {
		t.Fatalf("decoding state payload: %v", err)
	}
	if !state.Subs["1"].On {
		t.Error("optimistic state not republished")
	}
	if state.Subs["2"].On {
		t.Error("sibling sub changed")
	}
}

func TestGroupCommand(t *testing.T) {
	broker, gw, _ := lightTestSetup(t)

	err := broker.deliver(t, "shome/command/#", "shome/command/light/d1/group/1",
		[]byte(`{"action":"on_off","state":"ON"}`))
	if err != nil {
		t.Fatalf("group command error: %v", err)
	}

	gw.mu.Lock()
	lastWrite := gw.writes[len(gw.writes)-1]
	gw.mu.Unlock()
	if lastWrite != "group" {
		t.Errorf("last write = %s, want a group write", lastWrite)
	}

	var state lightDeviceState
	if err := json.Unmarshal(broker.get("shome/state/light/d1"), &state); err != nil {
		t.Fatalf("decoding state payload: %v", err)
	}
	if !state.Subs["1"].On || !state.Subs["2"].On {
		t.Error("group members not patched in published state")
	}
}

func TestAllLightsCommandIsSingleWrite(t *testing.T) {
	broker, gw, _ := lightTestSetup(t)

	err := broker.deliver(t, "shome/command/#", "shome/command/light/d1",
		[]byte(`{"action":"on_off","state":"ON"}`))
	if err != nil {
		t.Fatalf("all-lights command error: %v", err)
	}

	gw.mu.Lock()
	writes := append([]string(nil), gw.writes...)
	gw.mu.Unlock()
	if len(writes) != 1 || writes[0] != "all" {
		t.Errorf("writes = %v, want a single all-lights write", writes)
	}

	var state lightDeviceState
	if err := json.Unmarshal(broker.get("shome/state/light/d1"), &state); err != nil {
		t.Fatalf("decoding state payload: %v", err)
	}
	if !state.Subs["1"].On || !state.Subs["2"].On {
		t.Error("subs not patched in published state")
	}
}

func TestInvalidCommandsRejected(t *testing.T) {
	broker, _, _ := lightTestSetup(t)

	cases := []struct {
		name    string
		topic   string
		payload string
	}{
		{"BadJSON", "shome/command/light/d1/1", `{`},
		{"MissingAction", "shome/command/light/d1/1", `{}`},
		{"BadState", "shome/command/light/d1/1", `{"action":"on_off","state":"maybe"}`},
		{"UnknownAction", "shome/command/light/d1/1", `{"action":"warp"}`},
		{"UnknownCategory", "shome/command/toaster/d1/1", `{"action":"on_off","state":"ON"}`},
		{"UnknownDevice", "shome/command/light/nope/1", `{"action":"on_off","state":"ON"}`},
		{"BadGroupID", "shome/command/light/d1/group/zest", `{"action":"on_off","state":"ON"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := broker.deliver(t, "shome/command/#", tc.topic, []byte(tc.payload)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRefreshRequestTriggersDebouncedPoll(t *testing.T) {
	broker, gw, _ := lightTestSetup(t)
	initial := gw.polls.Load()

	for i := 0; i < 5; i++ {
		if err := broker.deliver(t, "shome/refresh/+", "shome/refresh/light", nil); err != nil {
			t.Fatalf("refresh handler error: %v", err)
		}
	}
	if gw.polls.Load() != initial {
		t.Error("refresh polled immediately")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && gw.polls.Load() == initial {
		time.Sleep(5 * time.Millisecond)
	}
	// Allow any stragglers, then confirm the burst collapsed to one poll.
	time.Sleep(50 * time.Millisecond)
	if got := gw.polls.Load(); got != initial+1 {
		t.Errorf("refresh burst produced %d polls, want 1", got-initial)
	}

	if err := broker.deliver(t, "shome/refresh/+", "shome/refresh/toaster", nil); err == nil {
		t.Error("expected error for unknown category refresh")
	}
}

type fakeClimateGateway struct {
	mu      sync.Mutex
	targets map[int]float64
	on      map[int]bool
}

func (f *fakeClimateGateway) GetClimateStatus(ctx context.Context, cat shome.Category, d shome.Device) ([]shome.ClimateSub, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var circuits []shome.ClimateSub
	for id, target := range f.targets {
		circuits = append(circuits, shome.ClimateSub{
			SubID:        id,
			Nickname:     "Zone",
			DeviceStatus: wireStatus(f.on[id]),
			SetTemp:      shome.Metric{Value: target, Valid: true},
		})
	}
	return circuits, nil
}

func (f *fakeClimateGateway) SetClimatePower(ctx context.Context, cat shome.Category, d shome.Device, subID int, state shome.OnOff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on[subID] = state == shome.On
	return nil
}

func (f *fakeClimateGateway) SetClimateTemperature(ctx context.Context, cat shome.Category, d shome.Device, subID int, target float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets[subID] = target
	return nil
}

func climateTestSetup(t *testing.T) (*fakeBroker, *fakeClimateGateway) {
	t.Helper()
	gw := &fakeClimateGateway{
		targets: map[int]float64{1: 20, 2: 22},
		on:      map[int]bool{1: true, 2: false},
	}
	devices := []shome.Device{{ThngID: "h1", Nickname: "Heater", ModelName: "IHN-2020", UniqueNum: "001"}}
	heaters := coordinator.NewClimateCoordinator(gw, shome.CategoryHeater, devices,
		10*time.Millisecond, coordinator.Options{Cooldown: 5 * time.Millisecond})
	t.Cleanup(heaters.Close)

	broker := newFakeBroker()
	br := New(broker, Coordinators{Heaters: heaters}, 1, nopLogger{})
	if err := br.Bind(context.Background()); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if err := heaters.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return broker, gw
}

func TestClimateSetTempCommand(t *testing.T) {
	broker, gw := climateTestSetup(t)

	err := broker.deliver(t, "shome/command/#", "shome/command/heater/h1/1",
		[]byte(`{"action":"set_temp","temp":24.5}`))
	if err != nil {
		t.Fatalf("set_temp command error: %v", err)
	}

	gw.mu.Lock()
	target := gw.targets[1]
	sibling := gw.targets[2]
	gw.mu.Unlock()
	if target != 24.5 {
		t.Errorf("cloud target = %v", target)
	}
	if sibling != 22 {
		t.Errorf("sibling circuit target changed to %v", sibling)
	}

	var state climateDeviceState
	if err := json.Unmarshal(broker.get("shome/state/heater/h1"), &state); err != nil {
		t.Fatalf("decoding state payload: %v", err)
	}
	if got := state.Subs["1"].TargetTemp; got == nil || *got != 24.5 {
		t.Errorf("published target = %v", got)
	}
	if got := state.Subs["2"].TargetTemp; got == nil || *got != 22 {
		t.Errorf("published sibling target = %v", got)
	}

	// set_temp without a temperature is rejected.
	err = broker.deliver(t, "shome/command/#", "shome/command/heater/h1/1",
		[]byte(`{"action":"set_temp"}`))
	if err == nil {
		t.Error("expected error for missing temp")
	}
}

func TestClimateCommandRequiresSubDevice(t *testing.T) {
	broker, gw := climateTestSetup(t)

	err := broker.deliver(t, "shome/command/#", "shome/command/heater/h1",
		[]byte(`{"action":"on_off","state":"OFF"}`))
	if err == nil {
		t.Fatal("expected error for climate command without a sub-device id")
	}

	gw.mu.Lock()
	stillOn := gw.on[1]
	gw.mu.Unlock()
	if !stillOn {
		t.Error("device-level command reached the cloud")
	}
}

func TestClimatePowerCommandIsCircuitScoped(t *testing.T) {
	broker, gw := climateTestSetup(t)

	err := broker.deliver(t, "shome/command/#", "shome/command/heater/h1/2",
		[]byte(`{"action":"on_off","state":"ON"}`))
	if err != nil {
		t.Fatalf("on_off command error: %v", err)
	}

	gw.mu.Lock()
	on1, on2 := gw.on[1], gw.on[2]
	gw.mu.Unlock()
	if !on2 {
		t.Error("commanded circuit not switched on")
	}
	if !on1 {
		t.Error("sibling circuit switched by a single-circuit command")
	}

	var state climateDeviceState
	if err := json.Unmarshal(broker.get("shome/state/heater/h1"), &state); err != nil {
		t.Fatalf("decoding state payload: %v", err)
	}
	if !state.Subs["2"].On {
		t.Error("published state missing the optimistic power patch")
	}
}
