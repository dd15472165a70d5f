package delivery

import (
	"log"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
)

// Router fans out wire events to the live connections of a message's
// participants. It consults the presence registry but never mutates it, and
// it is only ever invoked after the durable write for the event has already
// succeeded, so a client can never observe a live event for a message that
// is not yet retrievable from history.
type Router struct {
	registry *presence.Registry
}

// NewRouter constructs a Router over the given registry.
func NewRouter(registry *presence.Registry) *Router {
	return &Router{registry: registry}
}

// Route delivers a message-affecting event to both participants. The
// sender's connection is always attempted so their other tabs reflect the
// change; the receiver's only if they are online. An offline target is an
// expected outcome, not an error: the durable record is the source of truth
// for whoever fetches history next.
func (r *Router) Route(event models.WireEvent, senderID, receiverID string) {
	r.emit(event, senderID)
	if r.registry.Online(receiverID) {
		r.emit(event, receiverID)
	} else {
		observability.IncDelivery(event.Type, "offline")
	}
}

// RouteToSender delivers an event to the sender's connection only. Used for
// read receipts, where the receiver already knows.
func (r *Router) RouteToSender(event models.WireEvent, senderID string) {
	r.emit(event, senderID)
}

// RouteTyping relays an ephemeral typing signal toward the receiver only.
// If they are offline the signal is dropped; typing state is inherently
// lossy and never persisted.
func (r *Router) RouteTyping(event models.WireEvent, receiverID string) {
	if !r.registry.Online(receiverID) {
		observability.IncDelivery(event.Type, "offline")
		return
	}
	r.emit(event, receiverID)
}

// emit writes the event to userID's connection if one exists. A write
// failure on a stale handle is logged and dropped, never surfaced to the
// caller; the gateway's read loop notices the dead transport and
// unregisters it.
func (r *Router) emit(event models.WireEvent, userID string) {
	conn, ok := r.registry.Lookup(userID)
	if !ok {
		observability.IncDelivery(event.Type, "offline")
		return
	}
	if err := conn.WriteEvent(event); err != nil {
		log.Printf("live delivery failed user=%s conn=%s event=%s: %v", userID, conn.ID(), event.Type, err)
		observability.IncDelivery(event.Type, "write_error")
		return
	}
	observability.IncDelivery(event.Type, "delivered")
}
