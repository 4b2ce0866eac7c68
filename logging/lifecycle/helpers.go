// Package lifecycle defines connection-level events for the hub.
package lifecycle

import (
	"context"

	"pellet-run/server/logging"
)

const (
	// EventPlayerJoined is emitted when a client claims a player slot.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a client drops.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventMatchRestarted is emitted on a full restart out of game over.
	EventMatchRestarted logging.EventType = "lifecycle.match_restarted"
)

// PlayerJoinedPayload captures the slot a client was assigned.
type PlayerJoinedPayload struct {
	Slot int `json:"slot"`
}

// PlayerDisconnectedPayload captures the reason a client left.
type PlayerDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// PlayerJoined publishes a join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerJoinedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// PlayerDisconnected publishes a disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerDisconnectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerDisconnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// MatchRestarted publishes a full-restart event.
func MatchRestarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchRestarted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}
