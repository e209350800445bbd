// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"github.com/juju/errors"

	"github.com/juju/relationflags"
	corerelation "github.com/juju/relationflags/core/relation"
)

// Provider is the subordinate end of the manila-plugin interface. It
// names its backend, publishes configuration fragments for the files
// the principal owns, and reads the principal's authentication data.
type Provider struct {
	*relationflags.Tracker
}

// NewProvider wraps a tracker playing the provider role.
func NewProvider(tracker *relationflags.Tracker) (*Provider, error) {
	if tracker == nil {
		return nil, errors.NotValidf("nil tracker")
	}
	if role := tracker.Endpoint().Role; role != corerelation.Provider {
		return nil, errors.NotValidf("tracker role %q", role)
	}
	return &Provider{Tracker: tracker}, nil
}

// SetName publishes the backend's name. The name distinguishes this
// plugin's configuration from other backends on the principal, and is
// required before the principal will read any of its data.
func (p *Provider) SetName(name string) error {
	if !corerelation.IsValidName(name) {
		return errors.NotValidf("backend name %q", name)
	}
	published := p.Published()
	if published == nil {
		published = make(relationflags.Settings)
	}
	published[nameKey] = name
	p.Publish(published)
	return nil
}

// Name returns the published backend name, or the empty string if
// SetName has not been called.
func (p *Provider) Name() string {
	return p.Published()[nameKey]
}

// SetConfigurationData publishes the backend's configuration fragments.
func (p *Provider) SetConfigurationData(cfg BackendConfiguration) error {
	value, err := encodeWrapped(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	published := p.Published()
	if published == nil {
		published = make(relationflags.Settings)
	}
	published[configurationDataKey] = value
	p.Publish(published)
	return nil
}

// AuthenticationData assembles the authentication data published by
// the principal. Until the principal has published every required
// field the call fails with a MissingField error, and the caller
// should try again on a later event.
func (p *Provider) AuthenticationData() (AuthenticationData, error) {
	var zero AuthenticationData
	raw, ok := p.principalValue(authenticationDataKey)
	if !ok {
		return zero, NewMissingFieldError(authenticationDataKey)
	}
	var fields map[string]interface{}
	if err := decodeWrapped(raw, &fields); err != nil {
		return zero, errors.Trace(err)
	}
	auth, err := authDataFromMap(fields)
	if err != nil {
		return zero, errors.Trace(err)
	}
	return auth, nil
}

// principalValue reads a single key from the principal's data. The
// provider is a subordinate, so it converses with exactly one
// principal unit.
func (p *Provider) principalValue(key string) (string, bool) {
	peers := p.Peers()
	if len(peers) == 0 {
		return "", false
	}
	data, ok := p.PeerData(peers[0])
	if !ok {
		return "", false
	}
	value, ok := data[key]
	return value, ok && value != ""
}
