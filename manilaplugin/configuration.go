// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"encoding/json"

	"github.com/juju/errors"
)

// completeKey is carried inside the configuration payload alongside the
// file entries, marking whether the plugin considers its data final.
const completeKey = "complete"

// BackendConfiguration holds the configuration fragments a backend
// plugin sends for the files the principal owns. Files maps a
// configuration file path to the section text to merge into it. A
// plugin that still has work to do publishes Complete as false; the
// principal defers writing until the data is complete.
type BackendConfiguration struct {
	Complete bool
	Files    map[string]string
}

// MarshalJSON flattens the configuration into the wire form, where the
// complete marker sits beside the file entries in one object.
func (bc BackendConfiguration) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(bc.Files)+1)
	for path, content := range bc.Files {
		m[path] = content
	}
	m[completeKey] = bc.Complete
	return json.Marshal(m)
}

// UnmarshalJSON parses the wire form produced by MarshalJSON.
func (bc *BackendConfiguration) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Trace(err)
	}
	out := BackendConfiguration{Files: make(map[string]string)}
	for key, value := range m {
		if key == completeKey {
			complete, ok := value.(bool)
			if !ok {
				return errors.Errorf("%q is %T, want bool", completeKey, value)
			}
			out.Complete = complete
			continue
		}
		content, ok := value.(string)
		if !ok {
			return errors.Errorf("configuration entry %q is %T, want string", key, value)
		}
		out.Files[key] = content
	}
	*bc = out
	return nil
}
