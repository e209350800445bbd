// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package manilaplugin

import (
	"fmt"

	"github.com/juju/errors"
)

// missingFieldError indicates that a composite value cannot be
// assembled because a required constituent key has not been published
// yet. It is recoverable: the caller waits for a later event.
type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.field)
}

// NewMissingFieldError returns an error reporting that the named field
// has not been published yet.
func NewMissingFieldError(field string) error {
	return &missingFieldError{field: field}
}

// IsMissingField reports whether err indicates a field that has not
// been published yet.
func IsMissingField(err error) bool {
	_, ok := errors.Cause(err).(*missingFieldError)
	return ok
}
