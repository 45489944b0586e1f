package handlers

import (
	"net/http"
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Overlay pages are served from arbitrary origins (OBS browser sources, local files).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Heart-rate WebSocket stream
// @Description  Same events as /stream/heartrate, as JSON text frames.
// @Tags         stream
// @Success      101
// @Router       /ws/heartrate [get]
func (h *Handler) wsHeartRate(c *gin.Context) {
	serveWS[models.HeartRateReading](h, c, models.FeedHeartRate, h.services.HeartRate, h.cfg.HeartRateStatusInterval)
}

// @Summary      Glucose WebSocket stream
// @Description  Same events as /stream/glucose, as JSON text frames.
// @Tags         stream
// @Success      101
// @Router       /ws/glucose [get]
func (h *Handler) wsGlucose(c *gin.Context) {
	serveWS[models.GlucoseReading](h, c, models.FeedGlucose, h.services.Glucose, h.cfg.GlucoseStatusInterval)
}

func serveWS[T feed.Stamped](h *Handler, c *gin.Context, feedName string, src source[T], statusEvery time.Duration) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "feed", feedName, "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	v := attach(src, h.cfg.StreamBuffer)
	defer v.detach()

	status := time.NewTicker(statusEvery)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		status.Stop()
		ping.Stop()
	}()

	if err := writeEnvelope(conn, envelope{Type: eventInit, Data: v.init}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "feed", feedName, "err", err)
		}
		return
	}

	for {
		var msg envelope
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "feed", feedName, "err", err)
				}
				return
			}
			continue
		case r := <-v.readings:
			msg = envelope{Type: feedName, Data: r}
		case <-status.C:
			msg = envelope{Type: eventStatus, Data: statusOfSource(src)}
		}
		if err := writeEnvelope(conn, msg); err != nil {
			if h.log != nil {
				h.log.Infow("ws_write_failed", "feed", feedName, "err", err)
			}
			return
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

func writeEnvelope(conn *websocket.Conn, msg envelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
