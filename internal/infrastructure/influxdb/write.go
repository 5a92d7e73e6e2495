package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// EnvironmentReading is one environment sensor sample. Nil fields are
// metrics the sensor does not report and are omitted from the point.
type EnvironmentReading struct {
	DeviceID    string
	SensorName  string
	Temperature *float64
	Humidity    *float64
	CO2         *float64
	FineDust    *float64
}

// WriteEnvironmentReading records one environment sensor sample.
//
// The write is non-blocking; data is batched and sent asynchronously.
// A reading with no populated metrics is dropped.
//
// Measurement: environment
// Tags: device_id, sensor
// Fields: temperature_c, humidity_pct, co2_ppm, fine_dust_ugm3
func (c *Client) WriteEnvironmentReading(r EnvironmentReading) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{}
	if r.Temperature != nil {
		fields["temperature_c"] = *r.Temperature
	}
	if r.Humidity != nil {
		fields["humidity_pct"] = *r.Humidity
	}
	if r.CO2 != nil {
		fields["co2_ppm"] = *r.CO2
	}
	if r.FineDust != nil {
		fields["fine_dust_ugm3"] = *r.FineDust
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"environment",
		map[string]string{
			"device_id": r.DeviceID,
			"sensor":    r.SensorName,
		},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// ClimateReading is one sample from one circuit of an aircon or heater.
type ClimateReading struct {
	Category    string
	DeviceID    string
	Zone        string
	On          bool
	CurrentTemp *float64
	TargetTemp  *float64
}

// WriteClimateReading records one climate circuit sample.
//
// Measurement: climate
// Tags: device_id, category, zone
// Fields: on, current_temp_c, target_temp_c
func (c *Client) WriteClimateReading(r ClimateReading) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"on": r.On,
	}
	if r.CurrentTemp != nil {
		fields["current_temp_c"] = *r.CurrentTemp
	}
	if r.TargetTemp != nil {
		fields["target_temp_c"] = *r.TargetTemp
	}

	point := write.NewPoint(
		"climate",
		map[string]string{
			"device_id": r.DeviceID,
			"category":  r.Category,
			"zone":      r.Zone,
		},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
