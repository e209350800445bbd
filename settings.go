// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationflags

// Settings holds the key/value data one side of a relation publishes
// for the other side to read. Values are opaque strings; last write
// wins per key.
type Settings map[string]string

// Copy returns an independent copy of the settings.
func (s Settings) Copy() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether s and other hold exactly the same keys and
// values. A key added, removed or changed in value makes them unequal.
func (s Settings) Equal(other Settings) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
