package bridge

import (
	"github.com/LuterGS/shome-ha-integration/internal/coordinator"
	"github.com/LuterGS/shome-ha-integration/internal/infrastructure/influxdb"
)

// telemetryWriter is the InfluxDB surface the recorder uses, satisfied
// by *influxdb.Client.
type telemetryWriter interface {
	WriteEnvironmentReading(r influxdb.EnvironmentReading)
	WriteClimateReading(r influxdb.ClimateReading)
}

// Recorder forwards sensor and climate snapshots to InfluxDB. It hooks
// into the same coordinator listeners the MQTT bridge uses, so every
// successful poll produces one batch of points.
type Recorder struct {
	writer telemetryWriter
}

// NewRecorder creates a telemetry recorder over the given writer.
func NewRecorder(w telemetryWriter) *Recorder {
	return &Recorder{writer: w}
}

// BindSensors attaches the recorder to the sensor coordinator. Must be
// called before the coordinator is started.
func (r *Recorder) BindSensors(c *coordinator.SensorCoordinator) {
	if c == nil {
		return
	}
	c.AddListener(func(snap coordinator.Snapshot[coordinator.SensorState]) {
		for deviceID, entry := range snap {
			for _, s := range entry.Subs {
				r.writer.WriteEnvironmentReading(influxdb.EnvironmentReading{
					DeviceID:    deviceID,
					SensorName:  s.Name,
					Temperature: s.Temperature,
					Humidity:    s.Humidity,
					CO2:         s.CO2,
					FineDust:    s.FineDust,
				})
			}
		}
	})
}

// BindClimate attaches the recorder to an aircon or heater coordinator.
// Must be called before the coordinator is started.
func (r *Recorder) BindClimate(c *coordinator.ClimateCoordinator) {
	if c == nil {
		return
	}
	category := string(c.Category())
	c.AddListener(func(snap coordinator.Snapshot[coordinator.ClimateState]) {
		for deviceID, entry := range snap {
			for _, s := range entry.Subs {
				r.writer.WriteClimateReading(influxdb.ClimateReading{
					Category:    category,
					DeviceID:    deviceID,
					Zone:        s.Name,
					On:          s.On,
					CurrentTemp: s.CurrentTemp,
					TargetTemp:  s.TargetTemp,
				})
			}
		}
	})
}
