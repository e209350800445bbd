// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package relation holds the naming and binding surface shared by both
// ends of a relation interface.
package relation

import (
	"regexp"

	"github.com/juju/errors"
)

// NameSnippet is the regular expression fragment matching a valid
// relation or interface name.
const NameSnippet = "[a-z][a-z0-9]*([_-][a-z0-9]+)*"

var validName = regexp.MustCompile("^" + NameSnippet + "$")

// IsValidName reports whether name is a valid relation name.
func IsValidName(name string) bool {
	return validName.MatchString(name)
}

// Endpoint records the binding of a named relation endpoint to an
// interface identifier, as declared by the hosting application's
// metadata. It carries no behaviour of its own.
type Endpoint struct {
	// Name is the relation name the endpoint is declared under, and
	// the prefix used when rendering flag names.
	Name string

	// Role is the end of the interface this endpoint plays.
	Role Role

	// Interface identifies the protocol spoken over the relation.
	// Both ends must declare the same interface to be joined.
	Interface string
}

// Validate returns an error if the endpoint is not usable.
func (e Endpoint) Validate() error {
	if !IsValidName(e.Name) {
		return errors.NotValidf("relation name %q", e.Name)
	}
	if !e.Role.Valid() {
		return errors.NotValidf("role %q", e.Role)
	}
	if !IsValidName(e.Interface) {
		return errors.NotValidf("interface name %q", e.Interface)
	}
	return nil
}
