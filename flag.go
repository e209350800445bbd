// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationflags

import "fmt"

// Flag identifies one of the states a tracker derives for its relation.
type Flag string

const (
	// Connected is raised while at least one remote peer is joined.
	Connected Flag = "connected"

	// Available is raised once a joined peer has published non-empty
	// data, and stays raised while that peer remains joined.
	Available Flag = "available"

	// Changed is raised when observed peer data differs from the last
	// acknowledged snapshot, and stays raised until ClearChanged.
	Changed Flag = "changed"
)

// For renders the flag name scoped to the given relation, in the
// "{relation}.connected" form consumers match on.
func (f Flag) For(relationName string) string {
	return fmt.Sprintf("%s.%s", relationName, f)
}
