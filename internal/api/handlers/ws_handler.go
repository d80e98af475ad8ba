package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/bettercallrobots/voicebridge/internal/services"
)

// RelayHandler bridges the telephony relay's WebSocket event stream to the
// call service. One connection carries one call; events on it are handled
// in arrival order.
type RelayHandler struct {
	calls    services.CallService
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func NewRelayHandler(calls services.CallService, l *logrus.Logger) *RelayHandler {
	return &RelayHandler{
		calls: calls,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // relay connects from Twilio's edge
		},
		log: l.WithField("component", "relay_ws"),
	}
}

type relayClientMsg struct {
	Type        string `json:"type"`
	CallSid     string `json:"callSid"`
	VoicePrompt string `json:"voicePrompt"`
}

type relayTextMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Last  bool   `json:"last"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *RelayHandler) Relay(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	callSid := ""
	defer func() {
		if callSid != "" {
			h.calls.EndSession(callSid)
			h.log.WithField("call_sid", callSid).Info("connection closed, session cleared")
		}
	}()

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg relayClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.WithError(err).Warn("invalid relay message, dropped")
			continue
		}

		switch msg.Type {
		case "setup":
			callSid = msg.CallSid
			h.calls.CreateSession(callSid)
			h.log.WithField("call_sid", callSid).Info("call setup")

		case "prompt":
			if callSid == "" {
				h.log.Warn("prompt before setup, dropped")
				continue
			}

			reply, err := h.calls.SendMessage(ctx, callSid, msg.VoicePrompt)
			if err != nil {
				// unknown session: protocol error, drop the event
				h.log.WithField("call_sid", callSid).WithError(err).Warn("prompt dropped")
				continue
			}

			b, _ := json.Marshal(relayTextMsg{Type: "text", Token: reply, Last: true})
			if werr := wc.writeText(b); werr != nil {
				return
			}

		case "interrupt":
			// observed only; barge-in handling would hook in here
			h.log.WithField("call_sid", callSid).Debug("interrupt")

		default:
			h.log.WithField("type", msg.Type).Warn("unknown relay message type")
		}
	}
}
