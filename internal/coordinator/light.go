package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// LightState is the cached state of one sub-light.
type LightState struct {
	Name string
	On   bool
}

type lightGateway interface {
	GetLightStatus(ctx context.Context, d shome.Device) (shome.LightStatus, error)
	SetLight(ctx context.Context, d shome.Device, subID int, state shome.OnOff) error
	SetLightGroup(ctx context.Context, d shome.Device, groupID int, state shome.OnOff) error
	SetAllLights(ctx context.Context, d shome.Device, state shome.OnOff) error
}

// LightCoordinator caches light state and applies switch commands. It
// also tracks the wallpad's light groups, refreshed with every poll.
type LightCoordinator struct {
	*Coordinator[LightState]
	gateway      lightGateway
	devices      []shome.Device
	confirmDelay time.Duration

	groupMu sync.RWMutex
	groups  map[string][]shome.LightGroup
}

// NewLightCoordinator builds the light coordinator over the given
// devices. Lights poll on demand only, so opts.Interval should be zero.
func NewLightCoordinator(gw lightGateway, devices []shome.Device, confirmDelay time.Duration, opts Options) *LightCoordinator {
	lc := &LightCoordinator{
		gateway:      gw,
		devices:      devices,
		confirmDelay: confirmDelay,
		groups:       make(map[string][]shome.LightGroup),
	}
	lc.Coordinator = New("light", lc.fetch, opts)
	return lc
}

func (lc *LightCoordinator) fetch(ctx context.Context) (Snapshot[LightState], error) {
	snap := make(Snapshot[LightState], len(lc.devices))
	groups := make(map[string][]shome.LightGroup, len(lc.devices))

	for _, d := range lc.devices {
		status, err := lc.gateway.GetLightStatus(ctx, d)
		if err != nil {
			return nil, err
		}

		subs := make(map[int]LightState, len(status.Subs))
		for _, sub := range status.Subs {
			name := sub.Nickname
			if name == "" {
				name = d.Nickname
			}
			subs[sub.SubID] = LightState{Name: name, On: sub.On()}
		}
		snap[d.ThngID] = Entry[LightState]{Info: deviceInfo(d), Subs: subs}
		groups[d.ThngID] = status.Groups
	}

	lc.groupMu.Lock()
	lc.groups = groups
	lc.groupMu.Unlock()
	return snap, nil
}

// Groups returns the wallpad light groups of one device as of the last
// successful poll.
func (lc *LightCoordinator) Groups(deviceID string) []shome.LightGroup {
	lc.groupMu.RLock()
	defer lc.groupMu.RUnlock()
	return lc.groups[deviceID]
}

// SetLight switches one sub-light: cloud write first, then an
// optimistic patch of the on/off flag, then a delayed confirmation.
func (lc *LightCoordinator) SetLight(ctx context.Context, deviceID string, subID int, on bool) error {
	d, ok := findDevice(lc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: light %s", ErrUnknownDevice, deviceID)
	}
	if err := lc.gateway.SetLight(ctx, d, subID, shome.OnOffFromBool(on)); err != nil {
		return err
	}
	lc.ApplyPatch(deviceID, subID, func(s LightState) LightState {
		s.On = on
		return s
	})
	lc.ScheduleConfirm(lc.confirmDelay)
	return nil
}

// SetGroup switches a wallpad light group with a single cloud write and
// patches every member sub-light.
func (lc *LightCoordinator) SetGroup(ctx context.Context, deviceID string, groupID int, on bool) error {
	d, ok := findDevice(lc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: light %s", ErrUnknownDevice, deviceID)
	}

	var members []int
	for _, g := range lc.Groups(deviceID) {
		if g.GroupID == groupID {
			members = g.DeviceList
			break
		}
	}
	if members == nil {
		return fmt.Errorf("%w: light group %s/%d", ErrUnknownDevice, deviceID, groupID)
	}

	if err := lc.gateway.SetLightGroup(ctx, d, groupID, shome.OnOffFromBool(on)); err != nil {
		return err
	}
	lc.ApplyPatchAll(deviceID, members, func(s LightState) LightState {
		s.On = on
		return s
	})
	lc.ScheduleConfirm(lc.confirmDelay)
	return nil
}

// SetAll switches every light under a device with a single cloud write
// to the wallpad's all-lights target and patches every sub-light.
func (lc *LightCoordinator) SetAll(ctx context.Context, deviceID string, on bool) error {
	d, ok := findDevice(lc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: light %s", ErrUnknownDevice, deviceID)
	}

	if err := lc.gateway.SetAllLights(ctx, d, shome.OnOffFromBool(on)); err != nil {
		return err
	}
	lc.ApplyPatchAll(deviceID, nil, func(s LightState) LightState {
		s.On = on
		return s
	})
	lc.ScheduleConfirm(lc.confirmDelay)
	return nil
}

func deviceInfo(d shome.Device) DeviceInfo {
	return DeviceInfo{
		ID:        d.ThngID,
		Name:      d.Nickname,
		Model:     d.ModelName,
		ModelID:   d.ModelID,
		UniqueNum: d.UniqueNum,
	}
}

// findDevice resolves a cache key back to the listed device record; the
// record carries the wire address the gateway needs.
func findDevice(devices []shome.Device, deviceID string) (shome.Device, bool) {
	for _, d := range devices {
		if d.ThngID == deviceID {
			return d, true
		}
	}
	return shome.Device{}, false
}
