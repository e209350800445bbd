// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"encoding/json"

	"github.com/juju/errors"
)

// Relation data keys shared by both ends of the interface. Values for
// the data keys are JSON documents wrapped in a {"data": ...} envelope;
// the name key carries a bare string.
const (
	nameKey               = "_name"
	configurationDataKey  = "_configuration_data"
	authenticationDataKey = "_authentication_data"
)

// envelope is the wrapper both ends place around JSON payloads before
// storing them in a relation data value.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// encodeWrapped marshals v and wraps it in the data envelope.
func encodeWrapped(v interface{}) (string, error) {
	inner, err := json.Marshal(v)
	if err != nil {
		return "", errors.Trace(err)
	}
	out, err := json.Marshal(envelope{Data: inner})
	if err != nil {
		return "", errors.Trace(err)
	}
	return string(out), nil
}

// decodeWrapped unwraps the data envelope in raw and unmarshals the
// payload into out.
func decodeWrapped(raw string, out interface{}) error {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return errors.Annotate(err, "malformed envelope")
	}
	if env.Data == nil {
		return errors.New("envelope has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Annotate(err, "malformed payload")
	}
	return nil
}
