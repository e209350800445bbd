// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package watcher exposes relation flag transitions as a worker with a
// notify channel, so consumers wait for available or changed by
// selecting rather than polling the tracker.
package watcher

import (
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/relationflags"
)

// FlagWatcher is a worker that sends a value on Changes whenever the
// tracked relation's flags transition. An initial event is sent to
// report the watch is active, per the usual watcher contract.
type FlagWatcher struct {
	catacomb catacomb.Catacomb
	tracker  *relationflags.Tracker
	source   <-chan struct{}
	out      chan struct{}
}

// NewFlagWatcher starts a watcher over the given tracker's flags.
func NewFlagWatcher(tracker *relationflags.Tracker) (*FlagWatcher, error) {
	if tracker == nil {
		return nil, errors.NotValidf("nil tracker")
	}
	w := &FlagWatcher{
		tracker: tracker,
		source:  tracker.WatchFlags(),
		out:     make(chan struct{}),
	}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	})
	if err != nil {
		tracker.StopWatchingFlags(w.source)
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Changes returns the channel transition events are delivered on.
// Events are coalesced; one receipt may cover several transitions.
func (w *FlagWatcher) Changes() <-chan struct{} {
	return w.out
}

// Kill implements worker.Worker.
func (w *FlagWatcher) Kill() {
	w.catacomb.Kill(nil)
}

// Wait implements worker.Worker.
func (w *FlagWatcher) Wait() error {
	return w.catacomb.Wait()
}

func (w *FlagWatcher) loop() error {
	defer w.tracker.StopWatchingFlags(w.source)
	// Arm the initial event.
	out := w.out
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case <-w.source:
			out = w.out
		case out <- struct{}{}:
			out = nil
		}
	}
}
