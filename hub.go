package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pellet-run/server/internal/grid"
	"pellet-run/server/internal/match"
	"pellet-run/server/internal/maze"
	"pellet-run/server/internal/storage"
	"pellet-run/server/logging"
	"pellet-run/server/logging/lifecycle"
)

// ErrMatchFull is returned by Join when both player slots are taken.
var ErrMatchFull = errors.New("match full")

// HubConfig wires the hub's collaborators. Layout is required; the
// rest default to workable stand-ins.
type HubConfig struct {
	Layout    *maze.Layout
	Match     match.Config
	Store     *storage.Store
	Publisher logging.Publisher
	Logger    *logrus.Logger
	Seed      int64
}

type session struct {
	id            string
	slot          int
	lastInput     time.Time
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage serializes writes to the underlying connection.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// Hub owns the match simulation and every connected client. All match
// mutation happens on the simulation goroutine or under the hub mutex.
type Hub struct {
	mu          sync.Mutex
	layout      *maze.Layout
	match       *match.Orchestrator
	sessions    map[string]*session
	slots       [maxPlayers]string
	inputs      [maxPlayers]match.Input
	subscribers map[string]*subscriber

	logger      *logrus.Logger
	publisher   logging.Publisher
	store       *storage.Store
	seed        int64
	resultSaved bool
}

// NewHub builds a hub and its match from the given configuration.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	var scores match.HighScores
	if cfg.Store != nil {
		scores = cfg.Store
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	pellets := match.NewField(cfg.Layout)
	orchestrator := match.New(cfg.Layout, cfg.Match, pellets, scores, publisher, rng)

	return &Hub{
		layout:      cfg.Layout,
		match:       orchestrator,
		sessions:    make(map[string]*session),
		subscribers: make(map[string]*subscriber),
		logger:      logger,
		publisher:   publisher,
		store:       cfg.Store,
		seed:        cfg.Seed,
	}
}

// Join assigns the caller a free player slot and returns the initial
// snapshot. The third and later callers get ErrMatchFull.
func (h *Hub) Join() (joinResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	slot := -1
	for i, occupant := range h.slots {
		if occupant == "" {
			slot = i
			break
		}
	}
	if slot < 0 {
		return joinResponse{}, ErrMatchFull
	}

	id := uuid.NewString()
	now := time.Now()
	h.sessions[id] = &session{id: id, slot: slot, lastHeartbeat: now}
	h.slots[slot] = id
	h.inputs[slot] = match.Input{}

	h.logger.WithFields(logrus.Fields{"client": id, "slot": slot + 1}).Info("player joined")
	lifecycle.PlayerJoined(context.Background(), h.publisher, h.match.Tick(), clientRef(id), lifecycle.PlayerJoinedPayload{Slot: slot + 1})

	return joinResponse{
		Ver:   ProtocolVersion,
		ID:    id,
		Slot:  slot + 1,
		Maze:  mazePayload{Rows: h.layout.Rows, CellSize: h.layout.Grid.CellSize()},
		State: h.snapshotLocked(now),
	}, nil
}

// Subscribe associates a WebSocket connection with a joined client.
func (h *Hub) Subscribe(clientID string, conn *websocket.Conn) (*subscriber, stateMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[clientID]
	if !ok {
		return nil, stateMessage{}, false
	}

	now := time.Now()
	sess.lastHeartbeat = now

	if existing, ok := h.subscribers[clientID]; ok {
		existing.conn.Close()
	}

	sub := &subscriber{conn: conn}
	h.subscribers[clientID] = sub
	return sub, h.snapshotLocked(now), true
}

// Disconnect removes a client, frees its slot, and drops its held
// input so the abandoned player coasts to a stop at the next cell.
func (h *Hub) Disconnect(clientID, reason string) bool {
	h.mu.Lock()
	sub, subOK := h.subscribers[clientID]
	if subOK {
		delete(h.subscribers, clientID)
	}
	sess, ok := h.sessions[clientID]
	if ok {
		h.dropSessionLocked(sess, reason)
	}
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	return ok
}

func (h *Hub) dropSessionLocked(sess *session, reason string) {
	delete(h.sessions, sess.id)
	h.slots[sess.slot] = ""
	h.inputs[sess.slot] = match.Input{}
	h.logger.WithFields(logrus.Fields{"client": sess.id, "slot": sess.slot + 1, "reason": reason}).Info("player disconnected")
	lifecycle.PlayerDisconnected(context.Background(), h.publisher, h.match.Tick(), clientRef(sess.id), lifecycle.PlayerDisconnectedPayload{Reason: reason})
}

// UpdateIntent latches the client's held direction until replaced.
func (h *Hub) UpdateIntent(clientID, direction string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[clientID]
	if !ok {
		return false
	}
	h.inputs[sess.slot].Direction = parseDirection(direction)
	sess.lastInput = time.Now()
	return true
}

// RequestSwap latches a swap request; the next tick consumes it.
func (h *Hub) RequestSwap(clientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[clientID]
	if !ok {
		return false
	}
	h.inputs[sess.slot].SwapRequested = true
	return true
}

// RequestRestart resets the match out of game over. Requests in any
// other phase are ignored.
func (h *Hub) RequestRestart(clientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[clientID]; !ok {
		return false
	}
	if h.match.State().Phase != match.PhaseGameOver {
		return false
	}

	h.match.Restart()
	h.resultSaved = false
	h.logger.WithField("client", clientID).Info("match restarted")
	lifecycle.MatchRestarted(context.Background(), h.publisher, h.match.Tick(), clientRef(clientID))
	return true
}

// UpdateHeartbeat records the most recent heartbeat time and RTT.
func (h *Hub) UpdateHeartbeat(clientID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[clientID]
	if !ok {
		return 0, false
	}

	sess.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			sess.lastRTT = rtt
		}
	}

	return sess.lastRTT, true
}

// advance runs one simulation step and returns the snapshot to
// broadcast plus subscribers that timed out.
func (h *Hub) advance(now time.Time, dt float64) (stateMessage, []*subscriber) {
	h.mu.Lock()

	toClose := make([]*subscriber, 0)
	for id, sess := range h.sessions {
		if now.Sub(sess.lastHeartbeat) > disconnectAfter {
			if sub, ok := h.subscribers[id]; ok {
				toClose = append(toClose, sub)
				delete(h.subscribers, id)
			}
			h.dropSessionLocked(sess, "heartbeat timeout")
		}
	}

	inputs := h.inputs
	for slot := range h.inputs {
		h.inputs[slot].SwapRequested = false
	}

	h.match.Advance(dt, inputs)
	h.recordResultLocked()

	snapshot := h.snapshotLocked(now)
	h.mu.Unlock()

	return snapshot, toClose
}

// recordResultLocked persists the finished match exactly once per
// game over.
func (h *Hub) recordResultLocked() {
	state := h.match.State()
	if state.Phase != match.PhaseGameOver || h.resultSaved {
		return
	}
	h.resultSaved = true

	h.logger.WithFields(logrus.Fields{
		"level":  state.Level,
		"scores": state.Scores,
		"ticks":  h.match.Tick(),
	}).Info("game over")

	if h.store == nil {
		return
	}
	err := h.store.RecordMatch(storage.Result{
		Level:      state.Level,
		ScoreOne:   state.Scores[0],
		ScoreTwo:   state.Scores[1],
		TotalTicks: h.match.Tick(),
		Seed:       h.seed,
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to record match result")
	}
}

// RunSimulation drives the fixed-rate tick loop until stop closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			snapshot, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.BroadcastState(snapshot)
		}
	}
}

// Snapshot returns the current broadcast payload.
func (h *Hub) Snapshot() stateMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked(time.Now())
}

func (h *Hub) snapshotLocked(now time.Time) stateMessage {
	state := h.match.State()

	players := make([]playerSnapshot, 0, maxPlayers)
	for slot := 0; slot < maxPlayers; slot++ {
		mover := h.match.Player(slot)
		pos := mover.Position()
		players = append(players, playerSnapshot{
			ID:      fmt.Sprintf("player-%d", slot+1),
			Slot:    slot + 1,
			X:       pos.X,
			Y:       pos.Y,
			CellX:   mover.Cell().X,
			CellY:   mover.Cell().Y,
			Heading: headingString(mover.Heading()),
			Alive:   mover.Alive(),
			Score:   state.Scores[slot],
		})
	}

	pursuers := make([]pursuerSnapshot, 0, len(h.match.Pursuers()))
	for i, p := range h.match.Pursuers() {
		pos := p.Mover().Position()
		pursuers = append(pursuers, pursuerSnapshot{
			ID:         fmt.Sprintf("pursuer-%d", i+1),
			X:          pos.X,
			Y:          pos.Y,
			Scared:     p.Scared(),
			Respawning: p.Respawning(),
		})
	}

	pellets := make([]pelletSnapshot, 0)
	for _, pellet := range h.match.Pellets().Snapshot() {
		pellets = append(pellets, pelletSnapshot{
			X:    pellet.Cell.X,
			Y:    pellet.Cell.Y,
			Kind: pellet.Kind.String(),
		})
	}

	return stateMessage{
		Ver:      ProtocolVersion,
		Type:     "state",
		Tick:     h.match.Tick(),
		Players:  players,
		Pursuers: pursuers,
		Pellets:  pellets,
		Match: matchSnapshot{
			Phase:                 state.Phase.String(),
			Lives:                 state.Lives,
			Level:                 state.Level,
			Scores:                state.Scores,
			PelletsCollected:      state.PelletsCollected,
			TotalPellets:          state.TotalPellets,
			PowerUpActive:         state.PowerUpActive,
			PowerUpRemaining:      state.PowerUpRemaining,
			SwapWindowActive:      state.SwapWindowActive,
			SwapInitiator:         state.SwapInitiator + 1,
			SwapWindowRemaining:   state.SwapWindowRemaining,
			SwapOnCooldown:        state.SwapOnCooldown,
			SwapCooldownRemaining: state.SwapCooldownRemaining,
			TransitionRemaining:   state.TransitionRemaining,
			HighScore:             state.HighScore,
		},
		ServerTime: now.UnixMilli(),
	}
}

// BroadcastState sends a snapshot to every subscriber, disconnecting
// any whose connection fails.
func (h *Hub) BroadcastState(msg stateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal state message")
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).WithField("client", id).Warn("failed to send update")
			if h.Disconnect(id, "write failure") {
				go h.BroadcastState(h.Snapshot())
			}
		}
	}
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics
// endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsPlayer {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := make([]diagnosticsPlayer, 0, len(h.sessions))
	for _, sess := range h.sessions {
		players = append(players, diagnosticsPlayer{
			Ver:           ProtocolVersion,
			ID:            sess.id,
			Slot:          sess.slot + 1,
			LastHeartbeat: sess.lastHeartbeat.UnixMilli(),
			RTTMillis:     sess.lastRTT.Milliseconds(),
		})
	}
	return players
}

// RecentResults proxies the match history for the scores endpoint.
func (h *Hub) RecentResults(limit int) ([]storage.Result, error) {
	if h.store == nil {
		return nil, nil
	}
	return h.store.RecentMatches(limit)
}

func clientRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

func parseDirection(s string) grid.Cell {
	switch s {
	case "up":
		return grid.DirUp
	case "down":
		return grid.DirDown
	case "left":
		return grid.DirLeft
	case "right":
		return grid.DirRight
	}
	return grid.Cell{}
}

func headingString(dir grid.Cell) string {
	switch dir {
	case grid.DirUp:
		return "up"
	case grid.DirDown:
		return "down"
	case grid.DirLeft:
		return "left"
	case grid.DirRight:
		return "right"
	}
	return ""
}
