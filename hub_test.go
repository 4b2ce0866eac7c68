package server

import (
	"testing"
	"time"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/maze"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	layout, err := maze.Default()
	if err != nil {
		t.Fatalf("default maze: %v", err)
	}
	return NewHub(HubConfig{Layout: layout, Seed: 1})
}

func TestJoinAssignsSlotsAndRejectsThird(t *testing.T) {
	hub := newTestHub(t)

	first, err := hub.Join()
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	second, err := hub.Join()
	if err != nil {
		t.Fatalf("second join: %v", err)
	}

	if first.Slot != 1 || second.Slot != 2 {
		t.Fatalf("slots = %d/%d, want 1/2", first.Slot, second.Slot)
	}
	if first.ID == second.ID {
		t.Fatalf("duplicate client ids")
	}
	if len(first.Maze.Rows) == 0 {
		t.Fatalf("join response carries no maze")
	}

	if _, err := hub.Join(); err != ErrMatchFull {
		t.Fatalf("third join error = %v, want ErrMatchFull", err)
	}
}

func TestSlotFreedOnDisconnect(t *testing.T) {
	hub := newTestHub(t)

	first, _ := hub.Join()
	if _, err := hub.Join(); err != nil {
		t.Fatalf("second join: %v", err)
	}

	if !hub.Disconnect(first.ID, "test") {
		t.Fatalf("disconnect of known client failed")
	}
	if hub.Disconnect(first.ID, "test") {
		t.Fatalf("double disconnect succeeded")
	}

	rejoined, err := hub.Join()
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if rejoined.Slot != 1 {
		t.Fatalf("rejoin slot = %d, want freed slot 1", rejoined.Slot)
	}
}

func TestUpdateIntentRequiresKnownClient(t *testing.T) {
	hub := newTestHub(t)

	if hub.UpdateIntent("nobody", "up") {
		t.Fatalf("intent accepted for unknown client")
	}
	if hub.RequestSwap("nobody") {
		t.Fatalf("swap accepted for unknown client")
	}
	if hub.RequestRestart("nobody") {
		t.Fatalf("restart accepted for unknown client")
	}

	join, _ := hub.Join()
	if !hub.UpdateIntent(join.ID, "left") {
		t.Fatalf("intent rejected for joined client")
	}
	if got := hub.inputs[0].Direction; got != grid.DirLeft {
		t.Fatalf("latched direction = %v, want left", got)
	}
}

func TestRestartIgnoredWhilePlaying(t *testing.T) {
	hub := newTestHub(t)
	join, _ := hub.Join()

	if hub.RequestRestart(join.ID) {
		t.Fatalf("restart accepted outside game over")
	}
}

func TestHeartbeatTimeoutDropsSession(t *testing.T) {
	hub := newTestHub(t)
	join, _ := hub.Join()

	if _, ok := hub.UpdateHeartbeat(join.ID, time.Now(), 0); !ok {
		t.Fatalf("heartbeat rejected for joined client")
	}

	hub.advance(time.Now().Add(disconnectAfter+time.Second), 1.0/tickRate)

	if len(hub.DiagnosticsSnapshot()) != 0 {
		t.Fatalf("timed-out session still present")
	}
	if _, err := hub.Join(); err != nil {
		t.Fatalf("slot not freed after timeout: %v", err)
	}
}

func TestSwapRequestLatchedForOneTick(t *testing.T) {
	hub := newTestHub(t)
	join, _ := hub.Join()

	hub.RequestSwap(join.ID)
	if !hub.inputs[0].SwapRequested {
		t.Fatalf("swap request not latched")
	}
	hub.advance(time.Now(), 1.0/tickRate)
	if hub.inputs[0].SwapRequested {
		t.Fatalf("swap latch not cleared after the tick")
	}
}

func TestSnapshotShape(t *testing.T) {
	hub := newTestHub(t)
	join, _ := hub.Join()

	snapshot := hub.Snapshot()
	if snapshot.Ver != ProtocolVersion || snapshot.Type != "state" {
		t.Fatalf("snapshot header = %d %q", snapshot.Ver, snapshot.Type)
	}
	if len(snapshot.Players) != maxPlayers {
		t.Fatalf("players = %d, want %d", len(snapshot.Players), maxPlayers)
	}
	if len(snapshot.Pursuers) == 0 {
		t.Fatalf("snapshot has no pursuers")
	}
	if len(snapshot.Pellets) == 0 {
		t.Fatalf("snapshot has no pellets")
	}
	if snapshot.Match.Phase != "playing" {
		t.Fatalf("phase = %q, want playing", snapshot.Match.Phase)
	}
	if snapshot.Match.Lives <= 0 {
		t.Fatalf("lives = %d", snapshot.Match.Lives)
	}
	if join.State.Type != "state" {
		t.Fatalf("join response state type = %q", join.State.Type)
	}
}

func TestDirectionMapping(t *testing.T) {
	cases := map[string]grid.Cell{
		"up":    grid.DirUp,
		"down":  grid.DirDown,
		"left":  grid.DirLeft,
		"right": grid.DirRight,
		"":      {},
		"junk":  {},
	}
	for name, want := range cases {
		if got := parseDirection(name); got != want {
			t.Errorf("parseDirection(%q) = %v, want %v", name, got, want)
		}
	}
	for _, name := range []string{"up", "down", "left", "right"} {
		if got := headingString(parseDirection(name)); got != name {
			t.Errorf("headingString round trip %q = %q", name, got)
		}
	}
}
