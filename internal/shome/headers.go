package shome

import "net/http"

// Header values mimicking the vendor's Android client. The cloud rejects
// requests whose device fingerprint it does not recognise.
const (
	headerUserAgent   = "okhttp/3.12.0"
	headerDeviceModel = "sm990n"
	headerOSType      = "A"
	headerOSVersion   = "11"
)

// applyHeaders stamps the standing request headers. The bearer token and
// cookie pair are added only once a session exists, which makes the same
// helper usable for the pre-login version check.
func applyHeaders(req *http.Request, accessToken string, cookie Cookie) {
	req.Header.Set("User-Agent", headerUserAgent)
	req.Header.Set("X-APP-VERSION", appVersion)
	req.Header.Set("X-DEVICE-MODEL", headerDeviceModel)
	req.Header.Set("X-OS-TYPE", headerOSType)
	req.Header.Set("X-OS-VERSION", headerOSVersion)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if cookie.JSessionID != "" {
		req.Header.Set("Cookie", cookie.HeaderValue())
	}
}
