package shome

import (
	"context"
	"fmt"
)

// Device is one entry from the wallpad device listing.
type Device struct {
	ThngID      string `json:"thngId"`
	RootThngID  string `json:"rootThngId"`
	ModelID     string `json:"thngModelId"`
	ModelName   string `json:"thngModelName"`
	ModelTypeID string `json:"thngModelTypeId"`
	UniqueNum   string `json:"uniqueNum"`
	Nickname    string `json:"nickname"`
	CreatedAt   string `json:"createdAt"`
}

// Addr returns the path segment category endpoints address the device
// by: the model name and unique number joined with a dot.
func (d Device) Addr() string {
	return d.ModelName + "." + d.UniqueNum
}

type deviceListResponse struct {
	Pagination Pagination `json:"pagination"`
	DeviceList []Device   `json:"deviceList"`
}

// ListDevices fetches the device inventory of the logged-in home.
// Placeholder rows with an empty thngId are dropped.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	wallpadID := c.Session().WallpadID
	if wallpadID == "" {
		return nil, ErrNotLoggedIn
	}

	var resp deviceListResponse
	ep := ListDevices(wallpadID, c.now())
	if err := c.Do(ctx, ep, &resp); err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	devices := make([]Device, 0, len(resp.DeviceList))
	for _, d := range resp.DeviceList {
		if d.ThngID == "" {
			continue
		}
		devices = append(devices, d)
	}

	c.logger.Debug("device listing complete", "count", len(devices), "total", resp.Pagination.Total)
	return devices, nil
}
