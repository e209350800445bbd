// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package manilaplugin implements the manila-plugin relation interface
// on top of a relation flag tracker.
//
// The requirer end is run by the principal manila application. It sends
// the manila service user's authentication data to each subordinate
// backend plugin, and collects from each plugin the configuration
// fragments for the files the principal owns and writes out.
//
// The provider end is run by a subordinate backend plugin. It names
// itself, publishes its configuration fragments, and reads the
// authentication data once the principal has published it.
//
// Composite getters fail with a MissingField error until every
// required constituent key has been published; callers treat that as
// "not yet available" and try again on a later event.
package manilaplugin
