// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package bus delivers relation lifecycle events to trackers through an
// in-process hub. Production deployments receive these events from the
// orchestration system; the hub lets an embedding application, or a
// test, wire a requirer and a provider end together directly.
package bus

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/pubsub/v2"

	"github.com/juju/relationflags"
	corerelation "github.com/juju/relationflags/core/relation"
	"github.com/juju/relationflags/hook"
)

var logger = loggo.GetLogger("relationflags.bus")

// topic renders the topic an event is published on. Topics are
// directional: the role names the audience, so an end never observes
// its own publications.
func topic(relationName string, audience corerelation.Role, kind hook.Kind) string {
	return relationName + "." + audience.String() + "." + string(kind)
}

// Hub routes relation events to subscribed trackers. Delivery to each
// subscriber is ordered; a tracker sees events in publication order.
type Hub struct {
	hub *pubsub.SimpleHub
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{hub: pubsub.NewSimpleHub(nil)}
}

// PeerJoined announces to trackers of the audience role that peerID has
// joined the named relation. The returned channel is closed once all
// subscribers have seen the event.
func (h *Hub) PeerJoined(relationName string, audience corerelation.Role, peerID string) <-chan struct{} {
	return pubsub.Wait(h.hub.Publish(topic(relationName, audience, hook.RelationJoined), hook.Info{
		Kind:         hook.RelationJoined,
		RelationName: relationName,
		RemoteUnit:   peerID,
	}))
}

// PeerDataChanged announces to trackers of the audience role the data
// currently published by peerID on the named relation.
func (h *Hub) PeerDataChanged(relationName string, audience corerelation.Role, peerID string, data map[string]string) <-chan struct{} {
	return pubsub.Wait(h.hub.Publish(topic(relationName, audience, hook.RelationChanged), hook.Info{
		Kind:         hook.RelationChanged,
		RelationName: relationName,
		RemoteUnit:   peerID,
		Settings:     data,
	}))
}

// PeerDeparted announces to trackers of the audience role that peerID
// has left the named relation.
func (h *Hub) PeerDeparted(relationName string, audience corerelation.Role, peerID string) <-chan struct{} {
	return pubsub.Wait(h.hub.Publish(topic(relationName, audience, hook.RelationDeparted), hook.Info{
		Kind:         hook.RelationDeparted,
		RelationName: relationName,
		RemoteUnit:   peerID,
	}))
}

// RelationBroken announces removal of the named relation to both ends.
// The returned channel is closed once both audiences have seen the
// event.
func (h *Hub) RelationBroken(relationName string) <-chan struct{} {
	hi := hook.Info{
		Kind:         hook.RelationBroken,
		RelationName: relationName,
	}
	requirerDone := h.hub.Publish(topic(relationName, corerelation.Requirer, hook.RelationBroken), hi)
	providerDone := h.hub.Publish(topic(relationName, corerelation.Provider, hook.RelationBroken), hi)
	return pubsub.Wait(func() {
		requirerDone()
		providerDone()
	})
}

// SubscribeTracker feeds the tracker all events addressed to its end of
// the relation, and returns a function that cancels the subscription.
func (h *Hub) SubscribeTracker(t *relationflags.Tracker) func() {
	handler := func(topicName string, data interface{}) {
		hi, ok := data.(hook.Info)
		if !ok {
			logger.Errorf("unexpected payload on %q: %T", topicName, data)
			return
		}
		if err := t.HandleHook(hi); err != nil {
			logger.Errorf("cannot apply %q hook to %q: %v", hi.Kind, t.RelationName(), err)
		}
	}
	name := t.RelationName()
	role := t.Endpoint().Role
	unsubs := []func(){
		h.hub.Subscribe(topic(name, role, hook.RelationJoined), handler),
		h.hub.Subscribe(topic(name, role, hook.RelationChanged), handler),
		h.hub.Subscribe(topic(name, role, hook.RelationDeparted), handler),
		h.hub.Subscribe(topic(name, role, hook.RelationBroken), handler),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Flush transmits the tracker's pending publication, if any, to the
// other end of the relation as a data change from localUnit, and marks
// it delivered. The returned channel is closed once all subscribers
// have seen the event; it is nil when nothing was pending.
func (h *Hub) Flush(t *relationflags.Tracker, localUnit string) (<-chan struct{}, error) {
	data, ok := t.Pending()
	if !ok {
		return nil, nil
	}
	hi := hook.Info{
		Kind:         hook.RelationChanged,
		RelationName: t.RelationName(),
		RemoteUnit:   localUnit,
		Settings:     data,
	}
	if err := hi.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	audience := t.Endpoint().Role.Counterpart()
	done := pubsub.Wait(h.hub.Publish(topic(t.RelationName(), audience, hook.RelationChanged), hi))
	t.ClearPending()
	return done, nil
}
