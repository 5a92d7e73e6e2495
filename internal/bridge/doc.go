// Package bridge connects the category coordinators to the MQTT broker.
//
// # Responsibilities
//
//   - Publish retained device state to shome/state/{category}/{device_id}
//     whenever a coordinator publishes a snapshot (polls and optimistic
//     patches alike)
//   - Publish retained availability to shome/availability/{category} on
//     coordinator health transitions
//   - Subscribe to shome/command/# and dispatch on_off, set_temp and
//     set_speed actions to the owning coordinator
//   - Subscribe to shome/refresh/+ and forward debounced refresh
//     requests
//
// # Command Payloads
//
// Commands are JSON objects with an action discriminator:
//
//	{"action":"on_off","state":"ON"}
//	{"action":"set_temp","temp":23.5}
//	{"action":"set_speed","speed":2}
//
// Light commands address a sub-light (shome/command/light/{device}/{sub}),
// a wallpad group (shome/command/light/{device}/group/{group}), or the
// whole device (shome/command/light/{device}).
//
// Bind must be called before the coordinators are started so the first
// poll is published.
package bridge
