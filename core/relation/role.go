// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relation

// Role identifies which end of a relation interface a tracker manages.
type Role string

const (
	// Requirer is the consuming end, typically run by the principal
	// application.
	Requirer Role = "requirer"

	// Provider is the producing end, typically run by a subordinate.
	Provider Role = "provider"
)

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == Requirer || r == Provider
}

// Counterpart returns the role played by the other end of the relation.
func (r Role) Counterpart() Role {
	if r == Requirer {
		return Provider
	}
	return Requirer
}
