package shome

import (
	"context"
	"fmt"
)

// SensorReading is one environment sensor's measurements. Not every
// installation exposes every metric; absent ones have Valid false.
type SensorReading struct {
	SubID       int    `json:"deviceId"`
	Nickname    string `json:"nickname"`
	Temperature Metric `json:"temperature"`
	Humidity    Metric `json:"humidity"`
	CO2         Metric `json:"co2"`
	FineDust    Metric `json:"fineDust"`
}

type sensorResponse struct {
	DeviceInfoList []SensorReading `json:"deviceInfoList"`
}

// GetSensorReadings reads every environment sensor under the given
// device.
func (c *Client) GetSensorReadings(ctx context.Context, d Device) ([]SensorReading, error) {
	var resp sensorResponse
	ep := CategoryInfo(CategorySensor, d.Addr(), c.now())
	if err := c.Do(ctx, ep, &resp); err != nil {
		return nil, fmt.Errorf("reading sensor %s: %w", d.Addr(), err)
	}
	return resp.DeviceInfoList, nil
}
