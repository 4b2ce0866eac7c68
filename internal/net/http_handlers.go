// Package net exposes the hub over HTTP: REST endpoints for joining
// and diagnostics plus the WebSocket session carrying inputs and
// state broadcasts.
package net

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/sirupsen/logrus"

	server "pellet-run/server"
	"pellet-run/server/logging"
)

type HTTPHandlerConfig struct {
	ClientDir  string
	Logger     *logrus.Logger
	EventStats func() logging.RouterStats
}

type clientMessage struct {
	Ver       int    `json:"ver,omitempty"`
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	SentAt    int64  `json:"sentAt,omitempty"`
}

type ackMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	OK   bool   `json:"ok"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// NewHTTPHandler builds the full route table over the hub.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	router := way.NewRouter()

	router.HandleFunc("GET", "/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	router.HandleFunc("GET", "/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status        string `json:"status"`
			ServerTime    int64  `json:"serverTime"`
			Players       any    `json:"players"`
			TickRate      int    `json:"tickRate"`
			Heartbeat     int64  `json:"heartbeatMillis"`
			EventsTotal   uint64 `json:"eventsTotal"`
			EventsDropped uint64 `json:"eventsDropped"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Players:    hub.DiagnosticsSnapshot(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
		}
		if cfg.EventStats != nil {
			stats := cfg.EventStats()
			payload.EventsTotal = stats.EventsTotal
			payload.EventsDropped = stats.DroppedTotal
		}
		writeJSON(w, payload)
	})

	router.HandleFunc("GET", "/scores", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil && value > 0 && value <= 100 {
				limit = value
			}
		}
		results, err := hub.RecentResults(limit)
		if err != nil {
			logger.WithError(err).Warn("failed to load match history")
			nethttp.Error(w, "failed to load scores", nethttp.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			Matches any `json:"matches"`
		}{Matches: results})
	})

	router.HandleFunc("POST", "/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		join, err := hub.Join()
		if err != nil {
			nethttp.Error(w, err.Error(), nethttp.StatusConflict)
			return
		}
		writeJSON(w, join)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	router.HandleFunc("GET", "/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		clientID := r.URL.Query().Get("id")
		if clientID == "" {
			nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).WithField("client", clientID).Warn("upgrade failed")
			return
		}

		sub, snapshot, ok := hub.Subscribe(clientID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown client")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		data, err := json.Marshal(snapshot)
		if err != nil {
			logger.WithError(err).WithField("client", clientID).Error("failed to marshal initial state")
			hub.Disconnect(clientID, "marshal failure")
			return
		}
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			hub.Disconnect(clientID, "write failure")
			return
		}

		readLoop(hub, logger, clientID, conn, sub)
	})

	if cfg.ClientDir != "" {
		router.NotFound = nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
	}

	return router
}

func readLoop(hub *server.Hub, logger *logrus.Logger, clientID string, conn *websocket.Conn, sub interface {
	WriteMessage(messageType int, data []byte) error
}) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			hub.Disconnect(clientID, "connection closed")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.WithError(err).WithField("client", clientID).Debug("discarding malformed message")
			continue
		}

		switch msg.Type {
		case "input":
			if !hub.UpdateIntent(clientID, msg.Direction) {
				logger.WithField("client", clientID).Debug("input ignored for unknown client")
			}
		case "swap":
			hub.RequestSwap(clientID)
		case "restart":
			ok := hub.RequestRestart(clientID)
			ack := ackMessage{Ver: server.ProtocolVersion, Type: "restartAck", OK: ok}
			data, err := json.Marshal(ack)
			if err != nil {
				continue
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				hub.Disconnect(clientID, "write failure")
				return
			}
		case "heartbeat":
			now := time.Now()
			rtt, ok := hub.UpdateHeartbeat(clientID, now, msg.SentAt)
			if !ok {
				continue
			}

			ack := heartbeatMessage{
				Ver:        server.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			data, err := json.Marshal(ack)
			if err != nil {
				logger.WithError(err).WithField("client", clientID).Warn("failed to marshal heartbeat ack")
				continue
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				hub.Disconnect(clientID, "write failure")
				return
			}
		default:
			logger.WithFields(logrus.Fields{"client": clientID, "type": msg.Type}).Debug("unknown message type")
		}
	}
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
