package shome

import "fmt"

// Credential identifies one sHome account. It is immutable once created;
// PasswordHash is the SHA-512 hex digest of the plaintext password (the
// plaintext is never stored or transmitted).
type Credential struct {
	Username     string
	PasswordHash string
	DeviceID     string
}

// Cookie is the session cookie pair captured from the version-check
// response. It is required on every subsequent request until a new login.
type Cookie struct {
	JSessionID string
	WMonID     string
}

// HeaderValue renders the pair in Cookie header form.
func (c Cookie) HeaderValue() string {
	return fmt.Sprintf("JSESSIONID=%s; WMONID=%s", c.JSessionID, c.WMonID)
}

// LoginSession holds the account session returned by the login endpoint.
// It is replaced wholesale on every successful login; AccessToken is the
// bearer credential for all device requests and WallpadID scopes the
// device-listing URL.
type LoginSession struct {
	HomeID         string `json:"homeId"`
	WallpadID      string `json:"ihdId"`
	UserName       string `json:"userName"`
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	Dong           string `json:"dong"`
	Ho             string `json:"ho"`
	UserDistinct   string `json:"userDstnct"`
	BizID          string `json:"bizId"`
	AccessToken    string `json:"accessToken"`
	JoinDeviceType string `json:"joinDeviceType"`
}

// Pagination describes a paged listing response.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// OnOff is the wire representation of a binary device state.
type OnOff string

const (
	On  OnOff = "ON"
	Off OnOff = "OFF"
)

// OnOffFromBool converts a boolean to the wire state literal.
func OnOffFromBool(on bool) OnOff {
	if on {
		return On
	}
	return Off
}
