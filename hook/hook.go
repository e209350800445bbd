// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hook provides the types describing relation lifecycle events
// delivered by the external bus.
package hook

import (
	"fmt"

	"github.com/juju/names/v5"
)

// Kind enumerates the relation hooks known to the tracker.
type Kind string

const (
	// RelationJoined indicates a remote unit has entered the relation.
	RelationJoined Kind = "relation-joined"

	// RelationChanged indicates a remote unit has published data.
	RelationChanged Kind = "relation-changed"

	// RelationDeparted indicates a remote unit has left the relation.
	RelationDeparted Kind = "relation-departed"

	// RelationBroken indicates the relation itself has been removed.
	RelationBroken Kind = "relation-broken"
)

// Valid reports whether the kind is a known relation hook kind.
func (k Kind) Valid() bool {
	switch k {
	case RelationJoined, RelationChanged, RelationDeparted, RelationBroken:
		return true
	}
	return false
}

// Info holds details required to apply a hook to a tracker. Not all
// fields are relevant to all Kind values.
type Info struct {
	Kind Kind `yaml:"kind"`

	// RelationName identifies the relation the hook fired for.
	RelationName string `yaml:"relation-name"`

	// RemoteUnit is the unit that triggered the hook. It is not set
	// when Kind is RelationBroken.
	RemoteUnit string `yaml:"remote-unit,omitempty"`

	// Settings holds the data published by RemoteUnit at the time the
	// hook fired. It is only set when Kind is RelationChanged.
	Settings map[string]string `yaml:"settings,omitempty"`
}

// Validate returns an error if the info is not valid.
func (hi Info) Validate() error {
	switch hi.Kind {
	case RelationJoined, RelationChanged, RelationDeparted:
		if hi.RemoteUnit == "" {
			return fmt.Errorf("%q hook requires a remote unit", hi.Kind)
		}
		if !names.IsValidUnit(hi.RemoteUnit) {
			return fmt.Errorf("%q hook has invalid remote unit %q", hi.Kind, hi.RemoteUnit)
		}
		fallthrough
	case RelationBroken:
		if hi.RelationName == "" {
			return fmt.Errorf("%q hook requires a relation name", hi.Kind)
		}
		return nil
	}
	return fmt.Errorf("unknown hook kind %q", hi.Kind)
}
