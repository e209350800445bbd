// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationflags

import (
	"sort"
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/names/v5"
	"github.com/kr/pretty"

	corerelation "github.com/juju/relationflags/core/relation"
	"github.com/juju/relationflags/hook"
	"github.com/juju/relationflags/statedir"
)

var logger = loggo.GetLogger("relationflags")

// TrackerConfig holds the dependencies and values needed to create a
// Tracker.
type TrackerConfig struct {
	// Endpoint declares the relation the tracker manages and which
	// end of it the hosting application plays.
	Endpoint corerelation.Endpoint

	// StateDir, if set, persists acknowledged snapshots so flag state
	// survives a restart of the hosting process. It must have been
	// read for the same relation name as the endpoint.
	StateDir *statedir.StateDir
}

// Validate returns an error if the config cannot be used.
func (cfg TrackerConfig) Validate() error {
	if err := cfg.Endpoint.Validate(); err != nil {
		return errors.Trace(err)
	}
	if cfg.StateDir != nil && cfg.StateDir.RelationName() != cfg.Endpoint.Name {
		return errors.NotValidf("state dir for relation %q", cfg.StateDir.RelationName())
	}
	return nil
}

// peerScope holds the tracker's view of a single remote peer. A scope
// restored from a state dir exists without being connected; it does not
// contribute to the relation flags until the peer joins again.
type peerScope struct {
	connected bool
	data      Settings
	acked     Settings
	available bool
	changed   bool
}

// Tracker derives the connected, available and changed flags for one
// end of a relation from the events delivered by the external bus.
// Events for the same relation must be delivered one at a time; the
// tracker serializes them internally so flags may be read from other
// goroutines (in particular by flag watchers).
type Tracker struct {
	mu sync.Mutex

	endpoint corerelation.Endpoint
	dir      *statedir.StateDir

	peers     map[string]*peerScope
	published Settings
	pending   bool

	watchers []chan struct{}
}

// NewTracker returns a Tracker for the configured endpoint. If a state
// dir is configured, previously acknowledged snapshots are loaded, so a
// rejoining peer is compared against the baseline acknowledged before
// the restart.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	t := &Tracker{
		endpoint: cfg.Endpoint,
		dir:      cfg.StateDir,
		peers:    make(map[string]*peerScope),
	}
	if cfg.StateDir != nil {
		for peerID, st := range cfg.StateDir.Peers() {
			t.peers[peerID] = &peerScope{
				acked:     Settings(st.Acknowledged).Copy(),
				available: st.Available,
				changed:   st.Changed,
			}
		}
	}
	return t, nil
}

// RelationName returns the name of the tracked relation.
func (t *Tracker) RelationName() string {
	return t.endpoint.Name
}

// Endpoint returns the endpoint the tracker was created for.
func (t *Tracker) Endpoint() corerelation.Endpoint {
	return t.endpoint
}

// HandleHook validates the supplied hook info and applies it to the
// tracker.
func (t *Tracker) HandleHook(hi hook.Info) error {
	if err := hi.Validate(); err != nil {
		return errors.Trace(err)
	}
	if hi.RelationName != t.endpoint.Name {
		return errors.NotValidf("%q hook for relation %q", hi.Kind, hi.RelationName)
	}
	switch hi.Kind {
	case hook.RelationJoined:
		return t.PeerJoined(hi.RemoteUnit)
	case hook.RelationChanged:
		return t.PeerDataChanged(hi.RemoteUnit, hi.Settings)
	case hook.RelationDeparted:
		return t.PeerDeparted(hi.RemoteUnit)
	case hook.RelationBroken:
		return t.RelationBroken()
	}
	return errors.NotValidf("hook kind %q", hi.Kind)
}

// PeerJoined records the given peer as connected. It is idempotent:
// re-invocation for an already connected peer is a no-op.
func (t *Tracker) PeerJoined(peerID string) error {
	if !names.IsValidUnit(peerID) {
		return errors.NotValidf("peer %q", peerID)
	}
	t.mu.Lock()
	defer t.notify(t.snapshot())
	defer t.mu.Unlock()
	s, ok := t.peers[peerID]
	if !ok {
		s = &peerScope{}
		t.peers[peerID] = s
	}
	if s.connected {
		logger.Debugf("peer %q already joined %q", peerID, t.endpoint.Name)
		return nil
	}
	s.connected = true
	logger.Debugf("peer %q joined %q", peerID, t.endpoint.Name)
	return nil
}

// PeerDataChanged records the data currently published by the given
// peer. The first non-empty publication raises available and becomes
// the acknowledged baseline; later publications raise changed if they
// differ from that baseline. A raised changed flag is left untouched
// until ClearChanged, even if the data reverts.
func (t *Tracker) PeerDataChanged(peerID string, data Settings) error {
	if !names.IsValidUnit(peerID) {
		return errors.NotValidf("peer %q", peerID)
	}
	t.mu.Lock()
	defer t.notify(t.snapshot())
	defer t.mu.Unlock()
	s, ok := t.peers[peerID]
	if !ok || !s.connected {
		// The bus fires joined before changed; tolerate a missed
		// join so the flag ordering holds regardless.
		if !ok {
			s = &peerScope{}
			t.peers[peerID] = s
		}
		s.connected = true
	}
	if logger.IsTraceEnabled() {
		logger.Tracef("data from %q on %q: %# v", peerID, t.endpoint.Name, pretty.Formatter(data))
	}
	s.data = data.Copy()
	if !s.available {
		if len(data) == 0 {
			return nil
		}
		s.available = true
		if s.acked == nil {
			s.acked = data.Copy()
		}
		if !data.Equal(s.acked) {
			s.changed = true
		}
	} else if !s.changed && !data.Equal(s.acked) {
		s.changed = true
	}
	return errors.Trace(t.persist(peerID, s))
}

// PeerDeparted drops all state held for the given peer. Departure of an
// unknown peer is a no-op.
func (t *Tracker) PeerDeparted(peerID string) error {
	if !names.IsValidUnit(peerID) {
		return errors.NotValidf("peer %q", peerID)
	}
	t.mu.Lock()
	defer t.notify(t.snapshot())
	defer t.mu.Unlock()
	if _, ok := t.peers[peerID]; !ok {
		return nil
	}
	delete(t.peers, peerID)
	logger.Debugf("peer %q departed %q", peerID, t.endpoint.Name)
	if t.dir != nil {
		return errors.Trace(t.dir.Remove(peerID))
	}
	return nil
}

// RelationBroken drops all peer state and local published data; the
// session is over. Any persisted state is removed with it.
func (t *Tracker) RelationBroken() error {
	t.mu.Lock()
	defer t.notify(t.snapshot())
	defer t.mu.Unlock()
	t.peers = make(map[string]*peerScope)
	t.published = nil
	t.pending = false
	if t.dir != nil {
		return errors.Trace(t.dir.RemoveAll())
	}
	return nil
}

// ClearChanged acknowledges a raised changed flag: the flag is cleared
// and the current data of each changed peer becomes the new baseline
// for future comparisons. Without a pending change it is a no-op.
// Connected and available are unaffected.
func (t *Tracker) ClearChanged() error {
	t.mu.Lock()
	defer t.notify(t.snapshot())
	defer t.mu.Unlock()
	for peerID, s := range t.peers {
		if !s.changed {
			continue
		}
		s.changed = false
		s.acked = s.data.Copy()
		if err := t.persist(peerID, s); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Publish replaces the local side's published data wholesale and marks
// it pending for transmission to the peer. Publishing data equal to the
// current publication is skipped, and false is returned.
func (t *Tracker) Publish(data Settings) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if data.Equal(t.published) {
		logger.Tracef("publication on %q unchanged, skipping", t.endpoint.Name)
		return false
	}
	t.published = data.Copy()
	t.pending = true
	return true
}

// Published returns a copy of the local side's published data.
func (t *Tracker) Published() Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.published.Copy()
}

// Pending returns the published data awaiting transmission, if any.
func (t *Tracker) Pending() (Settings, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pending {
		return nil, false
	}
	return t.published.Copy(), true
}

// ClearPending records that the pending publication has been delivered.
func (t *Tracker) ClearPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = false
}

// IsConnected reports whether any peer is currently joined.
func (t *Tracker) IsConnected() bool {
	c, _, _ := t.Snapshot()
	return c
}

// IsAvailable reports whether any joined peer has published non-empty
// data this session.
func (t *Tracker) IsAvailable() bool {
	_, a, _ := t.Snapshot()
	return a
}

// IsChanged reports whether observed data differs from the last
// acknowledged snapshot and has not yet been acknowledged.
func (t *Tracker) IsChanged() bool {
	_, _, ch := t.Snapshot()
	return ch
}

// Snapshot returns the three relation flags in one consistent read.
func (t *Tracker) Snapshot() (connected, available, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.snapshot()
	return f.connected, f.available, f.changed
}

// PeerConnected reports whether the given peer is joined.
func (t *Tracker) PeerConnected(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.peers[peerID]
	return ok && s.connected
}

// PeerAvailable reports whether the given peer is joined and has
// published non-empty data this session.
func (t *Tracker) PeerAvailable(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.peers[peerID]
	return ok && s.connected && s.available
}

// PeerChanged reports whether the given peer has unacknowledged data.
func (t *Tracker) PeerChanged(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.peers[peerID]
	return ok && s.connected && s.changed
}

// PeerData returns a copy of the data last observed from the given
// peer, and whether the peer is joined.
func (t *Tracker) PeerData(peerID string) (Settings, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.peers[peerID]
	if !ok || !s.connected {
		return nil, false
	}
	return s.data.Copy(), true
}

// Peers returns the IDs of all joined peers in lexical order.
func (t *Tracker) Peers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for id, s := range t.peers {
		if s.connected {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Flags returns the rendered names of the currently raised flags, in
// the "{relation}.connected" form.
func (t *Tracker) Flags() set.Strings {
	flags := set.NewStrings()
	connected, available, changed := t.Snapshot()
	if connected {
		flags.Add(Connected.For(t.endpoint.Name))
	}
	if available {
		flags.Add(Available.For(t.endpoint.Name))
	}
	if changed {
		flags.Add(Changed.For(t.endpoint.Name))
	}
	return flags
}

// WatchFlags registers and returns a channel that receives a value
// whenever the relation flags transition. Notifications are coalesced;
// the channel never blocks the tracker. The caller must release the
// channel with StopWatchingFlags.
func (t *Tracker) WatchFlags() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan struct{}, 1)
	t.watchers = append(t.watchers, ch)
	return ch
}

// StopWatchingFlags releases a channel returned by WatchFlags.
func (t *Tracker) StopWatchingFlags(watch <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, ch := range t.watchers {
		if (<-chan struct{})(ch) == watch {
			t.watchers = append(t.watchers[:i], t.watchers[i+1:]...)
			return
		}
	}
}

// flagState is a point-in-time view of the relation flags.
type flagState struct {
	connected, available, changed bool
}

// snapshot derives the relation flags from the joined peer scopes.
// Callers must hold the mutex. Restored scopes whose peer has not
// rejoined contribute nothing, preserving the flag ordering.
func (t *Tracker) snapshot() flagState {
	var f flagState
	for _, s := range t.peers {
		if !s.connected {
			continue
		}
		f.connected = true
		f.available = f.available || s.available
		f.changed = f.changed || s.changed
	}
	return f
}

// notify wakes registered watchers if the flags moved away from before.
// It must run after the mutex is released, so it is deferred first.
func (t *Tracker) notify(before flagState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot() == before {
		return
	}
	for _, ch := range t.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// persist writes the peer's durable state if a state dir is configured.
// Callers must hold the mutex.
func (t *Tracker) persist(peerID string, s *peerScope) error {
	if t.dir == nil {
		return nil
	}
	return t.dir.Write(peerID, statedir.PeerState{
		Available:    s.available,
		Changed:      s.changed,
		Acknowledged: s.acked,
	})
}
