// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package relationflags tracks the state of one end of a relation
// between two applications that exchange string key/value data through
// an external event bus.
//
// Each end runs a Tracker against its own view of the relation. The
// tracker derives three flags from the events it observes:
//
//   - {relation}.connected: at least one remote peer has joined.
//   - {relation}.available: a peer has published non-empty data.
//   - {relation}.changed: observed data differs from the snapshot last
//     acknowledged with ClearChanged.
//
// The changed flag is latched: once raised it stays raised until the
// consumer calls ClearChanged, and further distinct publications are
// not re-signalled until it does. Consumers that miss this will process
// stale data; the behaviour is part of the convention and relied upon
// by existing charms.
//
// The flags obey a strict ordering: changed implies available, and
// available implies connected. Clearing changed affects neither of the
// other two.
package relationflags
