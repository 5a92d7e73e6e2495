// Package influxdb provides InfluxDB connectivity for sHome bridge
// telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, measurement writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Environment sensor readings (temperature, humidity, CO2, fine dust)
//   - Climate device history (power state, current and target temperature)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	t := 21.5
//	client.WriteEnvironmentReading(influxdb.EnvironmentReading{
//	    DeviceID:    "thng-123",
//	    SensorName:  "Living Room",
//	    Temperature: &t,
//	})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// the SetOnError callback. Connection and health check errors are
// returned directly.
package influxdb
