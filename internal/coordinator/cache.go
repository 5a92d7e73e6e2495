package coordinator

// DeviceInfo is the immutable identity of one cloud device, carried
// alongside its state in every snapshot entry.
type DeviceInfo struct {
	ID        string
	Name      string
	Model     string
	ModelID   string
	UniqueNum string
}

// Entry pairs a device's identity with the states of its sub-devices.
// Categories without addressable sub-devices use the single key 0.
type Entry[S any] struct {
	Info DeviceInfo
	Subs map[int]S
}

// Snapshot is one coordinator's full view of its category, keyed by
// device id. Snapshots are treated as immutable once published: writers
// build a fresh map (or fresh entries) and swap, readers never mutate.
type Snapshot[S any] map[string]Entry[S]

// cloneEntry copies an entry with a fresh sub-state map so a patch
// never mutates a published snapshot.
func cloneEntry[S any](e Entry[S]) Entry[S] {
	subs := make(map[int]S, len(e.Subs))
	for id, s := range e.Subs {
		subs[id] = s
	}
	return Entry[S]{Info: e.Info, Subs: subs}
}

// cloneSnapshot shallow-copies the device map. Entries are shared until
// individually cloned for patching.
func cloneSnapshot[S any](snap Snapshot[S]) Snapshot[S] {
	out := make(Snapshot[S], len(snap))
	for id, e := range snap {
		out[id] = e
	}
	return out
}
