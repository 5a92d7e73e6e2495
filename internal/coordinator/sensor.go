package coordinator

import (
	"context"

	"github.com/LuterGS/shome-ha-integration/internal/shome"
)

// SensorState is the cached readings of one environment sensor. Nil
// pointers mark metrics the installation does not report.
type SensorState struct {
	Name        string
	Temperature *float64
	Humidity    *float64
	CO2         *float64
	FineDust    *float64
}

type sensorGateway interface {
	GetSensorReadings(ctx context.Context, d shome.Device) ([]shome.SensorReading, error)
}

// SensorCoordinator polls environment sensors on a fixed interval.
type SensorCoordinator struct {
	*Coordinator[SensorState]
	gateway sensorGateway
	devices []shome.Device
}

// NewSensorCoordinator builds the sensor coordinator. opts.Interval
// sets the periodic poll cadence.
func NewSensorCoordinator(gw sensorGateway, devices []shome.Device, opts Options) *SensorCoordinator {
	sc := &SensorCoordinator{gateway: gw, devices: devices}
	sc.Coordinator = New("sensor", sc.fetch, opts)
	return sc
}

func (sc *SensorCoordinator) fetch(ctx context.Context) (Snapshot[SensorState], error) {
	snap := make(Snapshot[SensorState], len(sc.devices))
	for _, d := range sc.devices {
		readings, err := sc.gateway.GetSensorReadings(ctx, d)
		if err != nil {
			return nil, err
		}

		subs := make(map[int]SensorState, len(readings))
		for _, r := range readings {
			name := r.Nickname
			if name == "" {
				name = d.Nickname
			}
			subs[r.SubID] = SensorState{
				Name:        name,
				Temperature: r.Temperature.Ptr(),
				Humidity:    r.Humidity.Ptr(),
				CO2:         r.CO2.Ptr(),
				FineDust:    r.FineDust.Ptr(),
			}
		}
		snap[d.ThngID] = Entry[SensorState]{Info: deviceInfo(d), Subs: subs}
	}
	return snap, nil
}
