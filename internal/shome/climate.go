package shome

import (
	"context"
	"fmt"
	"strconv"
)

// ClimateSub is one room circuit under an aircon or heater device.
// deviceStatus is 1 when running. windSpeedMode and operationMode are
// non-zero on circuits that support fan-speed or mode control.
type ClimateSub struct {
	SubID         int    `json:"deviceId"`
	Nickname      string `json:"nickname"`
	DeviceStatus  int    `json:"deviceStatus"`
	CurrentTemp   Metric `json:"currentTemp"`
	SetTemp       Metric `json:"setTemp"`
	WindSpeedMode int    `json:"windSpeedMode"`
	OperationMode int    `json:"operationMode"`
}

// On reports whether the circuit is running.
func (s ClimateSub) On() bool { return s.DeviceStatus != 0 }

type climateResponse struct {
	DeviceInfoList []ClimateSub `json:"deviceInfoList"`
}

// GetClimateStatus reads every circuit under one aircon or heater
// device. cat must be CategoryAircon or CategoryHeater.
func (c *Client) GetClimateStatus(ctx context.Context, cat Category, d Device) ([]ClimateSub, error) {
	var resp climateResponse
	ep := CategoryInfo(cat, d.Addr(), c.now())
	if err := c.Do(ctx, ep, &resp); err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", cat, d.Addr(), err)
	}
	return resp.DeviceInfoList, nil
}

// SetClimatePower switches one circuit of an aircon or heater.
func (c *Client) SetClimatePower(ctx context.Context, cat Category, d Device, subID int, state OnOff) error {
	ep := ToggleSubDevice(cat, d.Addr(), strconv.Itoa(subID), state, c.now())
	if err := c.Do(ctx, ep, nil); err != nil {
		return fmt.Errorf("switching %s %s/%d %s: %w", cat, d.Addr(), subID, state, err)
	}
	return nil
}

// SetClimateTemperature sets the target temperature of one circuit.
func (c *Client) SetClimateTemperature(ctx context.Context, cat Category, d Device, subID int, target float64) error {
	ep := SetTemperature(cat, d.Addr(), strconv.Itoa(subID), target, c.now())
	if err := c.Do(ctx, ep, nil); err != nil {
		return fmt.Errorf("setting %s %s/%d target to %.1f: %w", cat, d.Addr(), subID, target, err)
	}
	return nil
}
