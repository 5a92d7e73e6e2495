// Package coordinator keeps in-memory device state synchronised with
// the sHome cloud, one coordinator per device category.
//
// # Polling Model
//
// Each coordinator owns a typed snapshot: device id to entry, entry to
// sub-device states. A successful poll replaces a device's sub-state
// map atomically; a failed poll leaves the snapshot untouched and only
// flips the health flag, so consumers keep serving the last good data.
//
// Sensors poll on a fixed interval. The actuator categories (lights,
// climate, ventilation) poll only on demand: after commands, on refresh
// requests, and for post-command confirmation.
//
// # Refresh Debouncing
//
// RequestRefresh never polls immediately. The first request arms a
// cooldown timer and every request during the cooldown is absorbed, so
// a burst of N requests produces exactly one poll, no earlier than the
// cooldown after the first request. This caps cloud traffic when many
// entities ask for state at once.
//
// # Optimistic Writes
//
// Commands write to the cloud first. Only on success is the local state
// patched optimistically (the single field the command changed) and a
// delayed confirmation poll scheduled. A newer command or a successful
// poll supersedes a pending confirmation.
package coordinator
