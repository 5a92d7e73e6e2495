package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the bridge's MQTT surface.
//
// The hierarchy is:
//
//	shome/state/{category}/{device_id}              retained state (JSON)
//	shome/availability/{category}                   retained "online"/"offline"
//	shome/command/{category}/{device_id}/{sub_id}   commands to the bridge
//	shome/command/light/{device_id}/group/{group_id} light group commands
//	shome/refresh/{category}                        on-demand refresh requests
//	shome/system/status                             bridge lifecycle (LWT)
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "shome"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "shome/system"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// State returns the retained state topic for one device.
//
// Example: shome/state/light/thng-123
func (Topics) State(category, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, category, deviceID)
}

// Availability returns the retained availability topic for a category.
//
// Example: shome/availability/light
func (Topics) Availability(category string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, category)
}

// Command returns the command topic for one sub-device.
//
// Example: shome/command/light/thng-123/1
func (Topics) Command(category, deviceID, subID string) string {
	return fmt.Sprintf("%s/command/%s/%s/%s", TopicPrefix, category, deviceID, subID)
}

// GroupCommand returns the command topic for a light group.
//
// Example: shome/command/light/thng-123/group/g1
func (Topics) GroupCommand(deviceID, groupID string) string {
	return fmt.Sprintf("%s/command/light/%s/group/%s", TopicPrefix, deviceID, groupID)
}

// Refresh returns the refresh request topic for a category.
//
// Example: shome/refresh/light
func (Topics) Refresh(category string) string {
	return fmt.Sprintf("%s/refresh/%s", TopicPrefix, category)
}

// SystemStatus returns the bridge lifecycle topic, also used as LWT.
//
// Example: shome/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllCommands returns a pattern matching every command topic.
//
// Pattern: shome/command/#
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/#", TopicPrefix)
}

// AllRefreshes returns a pattern matching every refresh topic.
//
// Pattern: shome/refresh/+
func (Topics) AllRefreshes() string {
	return fmt.Sprintf("%s/refresh/+", TopicPrefix)
}

// CommandAddress is a parsed command topic.
type CommandAddress struct {
	Category string
	DeviceID string
	// SubID is the sub-device segment. For group commands it is empty
	// and GroupID carries the target instead.
	SubID   string
	GroupID string
}

// ParseCommandTopic decomposes a topic received on the AllCommands
// pattern. Recognised shapes:
//
//	shome/command/{category}/{device_id}/{sub_id}
//	shome/command/light/{device_id}/group/{group_id}
//	shome/command/{category}/{device_id}
func ParseCommandTopic(topic string) (CommandAddress, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[0] != TopicPrefix || parts[1] != "command" {
		return CommandAddress{}, fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}

	addr := CommandAddress{Category: parts[2], DeviceID: parts[3]}
	switch {
	case len(parts) == 4:
		return addr, nil
	case len(parts) == 5:
		addr.SubID = parts[4]
		return addr, nil
	case len(parts) == 6 && parts[4] == "group":
		addr.GroupID = parts[5]
		return addr, nil
	default:
		return CommandAddress{}, fmt.Errorf("%w: %q has unexpected shape", ErrInvalidTopic, topic)
	}
}

// ParseRefreshTopic extracts the category from a refresh topic.
func ParseRefreshTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[1] != "refresh" || parts[2] == "" {
		return "", fmt.Errorf("%w: %q is not a refresh topic", ErrInvalidTopic, topic)
	}
	return parts[2], nil
}
