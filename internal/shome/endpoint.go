package shome

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Application identity presented to the cloud. The server validates these
// against its published app registry during the version check.
const (
	appName    = "shomeA"
	appVersion = "1.0.0"
	language   = "ENG"
)

// Endpoint is one fully-formed API call: method, path relative to the
// base URL, and the query parameters including createDate and hashData.
// Instances are only built by the constructors in this file so the
// signature field order can never drift from the path it belongs to.
type Endpoint struct {
	method string
	path   string
	params url.Values
}

func (e Endpoint) Method() string     { return e.method }
func (e Endpoint) Path() string       { return e.path }
func (e Endpoint) Params() url.Values { return e.params }

// newEndpoint signs the given fields together with the createDate and
// attaches both to the parameter set.
func newEndpoint(method, path string, now time.Time, params url.Values, signFields ...string) Endpoint {
	createDate := Timestamp(now)
	if params == nil {
		params = url.Values{}
	}
	params.Set("createDate", createDate)
	params.Set("hashData", Sign(append(signFields, createDate)...))
	return Endpoint{method: method, path: path, params: params}
}

// CheckAppVersion builds the version-check call that opens a session and
// yields the JSESSIONID/WMONID cookie pair. The osType value matches the
// X-OS-TYPE header; the cloud cross-checks the two.
func CheckAppVersion(now time.Time) Endpoint {
	params := url.Values{}
	params.Set("appName", appName)
	params.Set("osType", headerOSType)
	params.Set("currentVersion", appVersion)
	return newEndpoint(http.MethodGet, "/v18/users/checkAppVersion", now, params,
		appName, headerOSType, appVersion)
}

// Login builds the credential exchange call. The password travels only as
// its SHA-512 digest.
func Login(cred Credential, now time.Time) Endpoint {
	params := url.Values{}
	params.Set("userId", cred.Username)
	params.Set("password", cred.PasswordHash)
	params.Set("mobileDeviceIdno", cred.DeviceID)
	params.Set("appRegstId", "")
	params.Set("language", language)
	return newEndpoint(http.MethodPut, "/v18/users/login", now, params,
		cred.Username, cred.PasswordHash, cred.DeviceID, language)
}

// ListDevices builds the wallpad device listing call. The listing carries
// no parameters beyond the signature; the server returns the whole
// inventory in one response.
func ListDevices(wallpadID string, now time.Time) Endpoint {
	path := fmt.Sprintf("/v16/settings/%s/devices/", url.PathEscape(wallpadID))
	return newEndpoint(http.MethodGet, path, now, nil, wallpadID)
}

// CategoryInfo builds the state read for one device in a category.
// deviceAddr is the device's wire address (Device.Addr).
func CategoryInfo(cat Category, deviceAddr string, now time.Time) Endpoint {
	path := fmt.Sprintf("/v18/settings/%s/%s", cat, url.PathEscape(deviceAddr))
	return newEndpoint(http.MethodGet, path, now, nil, deviceAddr)
}

// ToggleSubDevice builds an on/off write addressing one sub-target under
// a device: a sub-device id, a light group id, or the all-lights target
// "0".
func ToggleSubDevice(cat Category, deviceAddr, sub string, state OnOff, now time.Time) Endpoint {
	params := url.Values{}
	params.Set("state", string(state))
	path := fmt.Sprintf("/v18/settings/%s/%s/%s/on-off", cat, url.PathEscape(deviceAddr), url.PathEscape(sub))
	return newEndpoint(http.MethodPut, path, now, params,
		deviceAddr, sub, string(state))
}

// SetTemperature builds a target-temperature write for one climate
// sub-device.
func SetTemperature(cat Category, deviceAddr, sub string, target float64, now time.Time) Endpoint {
	temp := strconv.FormatFloat(target, 'f', -1, 64)
	params := url.Values{}
	params.Set("setTemp", temp)
	path := fmt.Sprintf("/v18/settings/%s/%s/%s/temperature", cat, url.PathEscape(deviceAddr), url.PathEscape(sub))
	return newEndpoint(http.MethodPut, path, now, params,
		deviceAddr, sub, temp)
}

// SetWindSpeed builds a fan-speed write for one ventilation sub-device.
func SetWindSpeed(cat Category, deviceAddr, sub string, mode int, now time.Time) Endpoint {
	speed := strconv.Itoa(mode)
	params := url.Values{}
	params.Set("windSpeedMode", speed)
	path := fmt.Sprintf("/v18/settings/%s/%s/%s/wind-speed", cat, url.PathEscape(deviceAddr), url.PathEscape(sub))
	return newEndpoint(http.MethodPut, path, now, params,
		deviceAddr, sub, speed)
}
