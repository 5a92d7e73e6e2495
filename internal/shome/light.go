package shome

import (
	"context"
	"fmt"
	"strconv"
)

// allLightsTarget is the sub-target addressing every light under a
// device with one request.
const allLightsTarget = "0"

// LightGroup is a wallpad-defined grouping of light sub-devices, e.g.
// all lights in one room. groupStatus is an integer aggregate the
// wallpad computes; 0 means every member is off.
type LightGroup struct {
	GroupID     int    `json:"groupId"`
	Nickname    string `json:"nickname"`
	DeviceList  []int  `json:"deviceList"`
	GroupStatus int    `json:"groupStatus"`
}

// On reports whether any member of the group is lit.
func (g LightGroup) On() bool { return g.GroupStatus != 0 }

// LightSub is one individually switchable light under a light device.
// deviceStatus is 1 when lit.
type LightSub struct {
	SubID        int    `json:"deviceId"`
	Nickname     string `json:"nickname"`
	DeviceStatus int    `json:"deviceStatus"`
}

// On reports whether the light is lit.
func (s LightSub) On() bool { return s.DeviceStatus != 0 }

// LightStatus is the full state read for one light device.
type LightStatus struct {
	Groups []LightGroup `json:"groupInfo"`
	Subs   []LightSub   `json:"deviceInfoList"`
}

// GetLightStatus reads the current state of every sub-light and group
// under the given device.
func (c *Client) GetLightStatus(ctx context.Context, d Device) (LightStatus, error) {
	var status LightStatus
	ep := CategoryInfo(CategoryLight, d.Addr(), c.now())
	if err := c.Do(ctx, ep, &status); err != nil {
		return LightStatus{}, fmt.Errorf("reading light %s: %w", d.Addr(), err)
	}
	return status, nil
}

// SetLight switches one sub-light.
func (c *Client) SetLight(ctx context.Context, d Device, subID int, state OnOff) error {
	ep := ToggleSubDevice(CategoryLight, d.Addr(), strconv.Itoa(subID), state, c.now())
	if err := c.Do(ctx, ep, nil); err != nil {
		return fmt.Errorf("switching light %s/%d %s: %w", d.Addr(), subID, state, err)
	}
	return nil
}

// SetLightGroup switches every member of a wallpad light group with a
// single request.
func (c *Client) SetLightGroup(ctx context.Context, d Device, groupID int, state OnOff) error {
	ep := ToggleSubDevice(CategoryLight, d.Addr(), strconv.Itoa(groupID), state, c.now())
	if err := c.Do(ctx, ep, nil); err != nil {
		return fmt.Errorf("switching light group %s/%d %s: %w", d.Addr(), groupID, state, err)
	}
	return nil
}

// SetAllLights switches every light under a device with a single
// request, using the wallpad's all-lights target.
func (c *Client) SetAllLights(ctx context.Context, d Device, state OnOff) error {
	ep := ToggleSubDevice(CategoryLight, d.Addr(), allLightsTarget, state, c.now())
	if err := c.Do(ctx, ep, nil); err != nil {
		return fmt.Errorf("switching all lights %s %s: %w", d.Addr(), state, err)
	}
	return nil
}
