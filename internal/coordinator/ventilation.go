package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// Ventilation speed on a 0..3 scale: 0 off, 1 low, 3 high. The wire
// encoding runs the other way (mode 1 is highest); the conversion
// lives in speedFromMode/modeFromSpeed only.
const (
	SpeedOff    = 0
	SpeedLow    = 1
	SpeedMedium = 2
	SpeedHigh   = 3
)

// VentilationState is the cached state of one ventilation unit.
type VentilationState struct {
	Name  string
	Speed int
}

// On reports whether the unit is running.
func (s VentilationState) On() bool { return s.Speed > SpeedOff }

type ventilationGateway interface {
	GetVentilationStatus(ctx context.Context, d shome.Device) ([]shome.VentilationSub, error)
	SetVentilationPower(ctx context.Context, d shome.Device, subID int, state shome.OnOff) error
	SetVentilationSpeed(ctx context.Context, d shome.Device, subID, mode int) error
}

// VentilationCoordinator caches ventilation state and applies power and
// speed commands.
type VentilationCoordinator struct {
	*Coordinator[VentilationState]
	gateway      ventilationGateway
	devices      []shome.Device
	confirmDelay time.Duration
}

// NewVentilationCoordinator builds the ventilation coordinator.
// Ventilators poll on demand only.
func NewVentilationCoordinator(gw ventilationGateway, devices []shome.Device, confirmDelay time.Duration, opts Options) *VentilationCoordinator {
	vc := &VentilationCoordinator{
		gateway:      gw,
		devices:      devices,
		confirmDelay: confirmDelay,
	}
	vc.Coordinator = New("ventilation", vc.fetch, opts)
	return vc
}

func (vc *VentilationCoordinator) fetch(ctx context.Context) (Snapshot[VentilationState], error) {
	snap := make(Snapshot[VentilationState], len(vc.devices))
	for _, d := range vc.devices {
		units, err := vc.gateway.GetVentilationStatus(ctx, d)
		if err != nil {
			return nil, err
		}

		subs := make(map[int]VentilationState, len(units))
		for _, sub := range units {
			name := sub.Nickname
			if name == "" {
				name = d.Nickname
			}
			subs[sub.SubID] = VentilationState{
				Name:  name,
				Speed: speedFromMode(sub.WindSpeedMode),
			}
		}
		snap[d.ThngID] = Entry[VentilationState]{Info: deviceInfo(d), Subs: subs}
	}
	return snap, nil
}

// SetPower switches one unit on or off. Powering on assumes the middle
// speed optimistically; the confirmation poll corrects it if the unit
// resumed at a different setting.
func (vc *VentilationCoordinator) SetPower(ctx context.Context, deviceID string, subID int, on bool) error {
	d, ok := findDevice(vc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: ventilator %s", ErrUnknownDevice, deviceID)
	}
	if err := vc.gateway.SetVentilationPower(ctx, d, subID, shome.OnOffFromBool(on)); err != nil {
		return err
	}
	vc.ApplyPatch(deviceID, subID, func(s VentilationState) VentilationState {
		if on {
			s.Speed = SpeedMedium
		} else {
			s.Speed = SpeedOff
		}
		return s
	})
	vc.ScheduleConfirm(vc.confirmDelay)
	return nil
}

// SetSpeed sets one unit's speed. Speed 0 powers the unit off.
func (vc *VentilationCoordinator) SetSpeed(ctx context.Context, deviceID string, subID, speed int) error {
	if speed < SpeedOff || speed > SpeedHigh {
		return fmt.Errorf("invalid ventilation speed %d", speed)
	}
	if speed == SpeedOff {
		return vc.SetPower(ctx, deviceID, subID, false)
	}
	d, ok := findDevice(vc.devices, deviceID)
	if !ok {
		return fmt.Errorf("%w: ventilator %s", ErrUnknownDevice, deviceID)
	}
	if err := vc.gateway.SetVentilationSpeed(ctx, d, subID, modeFromSpeed(speed)); err != nil {
		return err
	}
	vc.ApplyPatch(deviceID, subID, func(s VentilationState) VentilationState {
		s.Speed = speed
		return s
	})
	vc.ScheduleConfirm(vc.confirmDelay)
	return nil
}

func speedFromMode(mode int) int {
	switch mode {
	case shome.WindSpeedHigh:
		return SpeedHigh
	case shome.WindSpeedMedium:
		return SpeedMedium
	case shome.WindSpeedLow:
		return SpeedLow
	default:
		return SpeedOff
	}
}

func modeFromSpeed(speed int) int {
	switch speed {
	case SpeedHigh:
		return shome.WindSpeedHigh
	case SpeedMedium:
		return shome.WindSpeedMedium
	case SpeedLow:
		return shome.WindSpeedLow
	default:
		return shome.WindSpeedOff
	}
}
