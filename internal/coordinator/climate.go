package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// ClimateState is the cached state of one room circuit of an aircon or
// heater device.
type ClimateState struct {
	Name        string
	On          bool
	CurrentTemp *float64
	TargetTemp  *float64
}

type climateGateway interface {
	GetClimateStatus(ctx context.Context, cat shome.Category, d shome.Device) ([]shome.ClimateSub, error)
	SetClimatePower(ctx context.Context, cat shome.Category, d shome.Device, subID int, state shome.OnOff) error
	SetClimateTemperature(ctx context.Context, cat shome.Category, d shome.Device, subID int, target float64) error
}

// ClimateCoordinator caches aircon or heater state and applies power
// and target-temperature commands. One instance serves one category;
// sub-devices are the per-room circuits the wallpad reports.
type ClimateCoordinator struct {
	*Coordinator[ClimateState]
	gateway      climateGateway
	category     shome.Category
	devices      []shome.Device
	confirmDelay time.Duration
}

// NewClimateCoordinator builds a coordinator for cat, which must be
// shome.CategoryAircon or shome.CategoryHeater. Climate devices poll on
// demand only.
func NewClimateCoordinator(gw climateGateway, cat shome.Category, devices []shome.Device, confirmDelay time.Duration, opts Options) *ClimateCoordinator {
	cc := &ClimateCoordinator{
		gateway:      gw,
		category:     cat,
		devices:      devices,
		confirmDelay: confirmDelay,
	}
	cc.Coordinator = New(string(cat), cc.fetch, opts)
	return cc
}

// Category returns the climate family this coordinator serves.
func (cc *ClimateCoordinator) Category() shome.Category { return cc.category }

func (cc *ClimateCoordinator) fetch(ctx context.Context) (Snapshot[ClimateState], error) {
	snap := make(Snapshot[ClimateState], len(cc.devices))
	for _, d := range cc.devices {
		circuits, err := cc.gateway.GetClimateStatus(ctx, cc.category, d)
		if err != nil {
			return nil, err
		}

		subs := make(map[int]ClimateState, len(circuits))
		for _, sub := range circuits {
			name := sub.Nickname
			if name == "" {
				name = d.Nickname
			}
			subs[sub.SubID] = ClimateState{
				Name:        name,
				On:          sub.On(),
				CurrentTemp: sub.CurrentTemp.Ptr(),
				TargetTemp:  sub.SetTemp.Ptr(),
			}
		}
		snap[d.ThngID] = Entry[ClimateState]{Info: deviceInfo(d), Subs: subs}
	}
	return snap, nil
}

// SetPower switches one circuit on or off.
func (cc *ClimateCoordinator) SetPower(ctx context.Context, deviceID string, subID int, on bool) error {
	d, ok := findDevice(cc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownDevice, cc.category, deviceID)
	}
	if err := cc.gateway.SetClimatePower(ctx, cc.category, d, subID, shome.OnOffFromBool(on)); err != nil {
		return err
	}
	cc.ApplyPatch(deviceID, subID, func(s ClimateState) ClimateState {
		s.On = on
		return s
	})
	cc.ScheduleConfirm(cc.confirmDelay)
	return nil
}

// SetTargetTemperature sets one circuit's target temperature.
func (cc *ClimateCoordinator) SetTargetTemperature(ctx context.Context, deviceID string, subID int, target float64) error {
	d, ok := findDevice(cc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownDevice, cc.category, deviceID)
	}
	if err := cc.gateway.SetClimateTemperature(ctx, cc.category, d, subID, target); err != nil {
		return err
	}
	cc.ApplyPatch(deviceID, subID, func(s ClimateState) ClimateState {
		s.TargetTemp = &target
		return s
	})
	cc.ScheduleConfirm(cc.confirmDelay)
	return nil
}
