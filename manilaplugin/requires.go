// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/relationflags"
	corerelation "github.com/juju/relationflags/core/relation"
)

var logger = loggo.GetLogger("relationflags.manilaplugin")

// Requirer is the principal end of the manila-plugin interface. It
// publishes the service user's authentication data and reads the
// configuration fragments published by each subordinate plugin.
type Requirer struct {
	*relationflags.Tracker
}

// NewRequirer wraps a tracker playing the requirer role.
func NewRequirer(tracker *relationflags.Tracker) (*Requirer, error) {
	if tracker == nil {
		return nil, errors.NotValidf("nil tracker")
	}
	if role := tracker.Endpoint().Role; role != corerelation.Requirer {
		return nil, errors.NotValidf("tracker role %q", role)
	}
	return &Requirer{Tracker: tracker}, nil
}

// SetAuthenticationData publishes the authentication data for the
// subordinate plugins to read. Empty fields are published as-is but
// warned about, as the plugins cannot assemble credentials from them.
func (r *Requirer) SetAuthenticationData(auth AuthenticationData) error {
	fields := auth.fields()
	for _, name := range authFieldNames {
		if fields[name] == "" {
			logger.Warningf("setting authentication data with empty %q", name)
		}
	}
	value, err := encodeWrapped(fields)
	if err != nil {
		return errors.Trace(err)
	}
	published := r.Published()
	if published == nil {
		published = make(relationflags.Settings)
	}
	published[authenticationDataKey] = value
	r.Publish(published)
	return nil
}

// Names returns the names of the backends that have published
// configuration data, in peer order. A plugin that has not yet named
// itself is not listed.
func (r *Requirer) Names() []string {
	var names []string
	for _, peerID := range r.Peers() {
		data, ok := r.PeerData(peerID)
		if !ok {
			continue
		}
		if data[nameKey] != "" && data[configurationDataKey] != "" {
			names = append(names, data[nameKey])
		}
	}
	return names
}

// ConfigurationData returns the configuration fragments published by
// the plugins, keyed by backend name. If names are given, only those
// backends are returned. Plugins that have not yet published both a
// name and configuration data are skipped; multiple backends may
// target sections of the same file.
func (r *Requirer) ConfigurationData(names ...string) (map[string]BackendConfiguration, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	result := make(map[string]BackendConfiguration)
	for _, peerID := range r.Peers() {
		data, ok := r.PeerData(peerID)
		if !ok {
			continue
		}
		name := data[nameKey]
		raw := data[configurationDataKey]
		if name == "" || raw == "" {
			continue
		}
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		var cfg BackendConfiguration
		if err := decodeWrapped(raw, &cfg); err != nil {
			return nil, errors.Annotatef(err, "configuration data from %q", peerID)
		}
		result[name] = cfg
	}
	return result, nil
}
