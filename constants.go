package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 15 // ticks per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval
	maxPlayers        = 2
)

// TickRate reports the fixed simulation rate in ticks per second.
func TickRate() int { return tickRate }

// HeartbeatInterval reports the expected client heartbeat cadence.
func HeartbeatInterval() time.Duration { return heartbeatInterval }
