// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package statedir implements persistent local storage of the
// acknowledged relation snapshots a tracker compares incoming data
// against. Persisting them means a process restart neither re-raises a
// change that was already acknowledged nor drops one that was pending.
package statedir

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"
	"gopkg.in/yaml.v2"

	corerelation "github.com/juju/relationflags/core/relation"
)

// PeerState is the per-peer state a tracker persists between runs.
type PeerState struct {
	// Available records whether the peer has ever published non-empty
	// data this relation.
	Available bool `yaml:"available"`

	// Changed records a raised changed flag that has not yet been
	// acknowledged.
	Changed bool `yaml:"changed,omitempty"`

	// Acknowledged is the snapshot of the peer's data last acknowledged
	// by the consumer. Incoming data is compared against it.
	Acknowledged map[string]string `yaml:"acknowledged,omitempty"`
}

// StateDir is a filesystem-backed record of per-peer relation state.
// Concurrent modifications to the underlying directory cause StateDir
// instances to exhibit undefined behaviour.
type StateDir struct {
	path         string
	relationName string

	// peers caches the directory contents, which is guaranteed to be
	// synchronized with the true state so long as no concurrent
	// changes are made to the directory.
	peers map[string]PeerState
}

// ReadStateDir loads a StateDir from the subdirectory of dirPath named
// for the supplied relation. Entries with names ending in "-" followed
// by an integer must be files containing valid peer data; all other
// names are ignored. If the directory does not exist, it is created.
func ReadStateDir(dirPath, relationName string) (d *StateDir, err error) {
	if !corerelation.IsValidName(relationName) {
		return nil, errors.NotValidf("relation name %q", relationName)
	}
	path := filepath.Join(dirPath, relationName)
	defer errors.DeferredAnnotatef(&err, "cannot load relation state from %q", path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Trace(err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	peers := make(map[string]PeerState)
	for _, entry := range entries {
		name := entry.Name()
		peerID, ok := peerName(name)
		if !ok {
			// This doesn't look like a peer file.
			continue
		}
		data, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return nil, errors.Trace(err)
		}
		var st PeerState
		if err := yaml.Unmarshal(data, &st); err != nil {
			return nil, errors.Annotatef(err, "invalid peer file %q", name)
		}
		peers[peerID] = st
	}
	return &StateDir{path: path, relationName: relationName, peers: peers}, nil
}

// ReadAllStateDirs loads and returns every StateDir persisted directly
// inside the supplied dirPath, keyed by relation name. Entries that are
// not valid relation names are ignored. If dirPath does not exist, it
// is created.
func ReadAllStateDirs(dirPath string) (dirs map[string]*StateDir, err error) {
	defer errors.DeferredAnnotatef(&err, "cannot load relations state from %q", dirPath)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return nil, errors.Trace(err)
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dirs = make(map[string]*StateDir)
	for _, entry := range entries {
		if !entry.IsDir() || !corerelation.IsValidName(entry.Name()) {
			// This doesn't look like a relation.
			continue
		}
		dir, err := ReadStateDir(dirPath, entry.Name())
		if err != nil {
			return nil, errors.Trace(err)
		}
		dirs[entry.Name()] = dir
	}
	return dirs, nil
}

// RelationName returns the relation the directory holds state for.
func (d *StateDir) RelationName() string {
	return d.relationName
}

// Peers returns the cached per-peer state, keyed by peer ID.
func (d *StateDir) Peers() map[string]PeerState {
	out := make(map[string]PeerState, len(d.peers))
	for id, st := range d.peers {
		out[id] = copyState(st)
	}
	return out
}

// Peer returns the cached state for the given peer, if any.
func (d *StateDir) Peer(peerID string) (PeerState, bool) {
	st, ok := d.peers[peerID]
	if !ok {
		return PeerState{}, false
	}
	return copyState(st), true
}

// Write atomically persists the state for the given peer and updates
// the cache. Rewriting an identical state is a no-op on disk content.
func (d *StateDir) Write(peerID string, st PeerState) (err error) {
	defer errors.DeferredAnnotatef(&err, "failed to write state for %q", peerID)
	data, err := yaml.Marshal(st)
	if err != nil {
		return errors.Trace(err)
	}
	path := filepath.Join(d.path, peerFsName(peerID))
	if err := utils.AtomicWriteFile(path, data, 0644); err != nil {
		return errors.Trace(err)
	}
	d.peers[peerID] = copyState(st)
	return nil
}

// Remove deletes the persisted state for the given peer. Removing a
// peer with no persisted state is a no-op.
func (d *StateDir) Remove(peerID string) error {
	path := filepath.Join(d.path, peerFsName(peerID))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Annotatef(err, "failed to remove state for %q", peerID)
	}
	delete(d.peers, peerID)
	return nil
}

// RemoveAll deletes the relation's state directory entirely. It is
// called when the relation is broken.
func (d *StateDir) RemoveAll() error {
	if err := os.RemoveAll(d.path); err != nil {
		return errors.Annotatef(err, "failed to remove %q", d.path)
	}
	d.peers = make(map[string]PeerState)
	return nil
}

func copyState(st PeerState) PeerState {
	out := st
	if st.Acknowledged != nil {
		out.Acknowledged = make(map[string]string, len(st.Acknowledged))
		for k, v := range st.Acknowledged {
			out.Acknowledged[k] = v
		}
	}
	return out
}

// peerFsName converts a peer ID like "manila-generic/0" to a name
// usable as a filename.
func peerFsName(peerID string) string {
	return strings.ReplaceAll(peerID, "/", "-")
}

// peerName converts a filename back to a peer ID, reporting whether the
// name looks like one written by peerFsName.
func peerName(fsName string) (string, bool) {
	i := strings.LastIndex(fsName, "-")
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.Atoi(fsName[i+1:]); err != nil {
		return "", false
	}
	return fsName[:i] + "/" + fsName[i+1:], true
}
