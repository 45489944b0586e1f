package handlers

import (
	"io"
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Heart-rate event stream
// @Description  Server-Sent Events: one "init" event, then "heartrate" readings and periodic "status" events.
// @Tags         stream
// @Produce      text/event-stream
// @Success      200
// @Router       /stream/heartrate [get]
func (h *Handler) streamHeartRate(c *gin.Context) {
	serveSSE[models.HeartRateReading](h, c, models.FeedHeartRate, h.services.HeartRate, h.cfg.HeartRateStatusInterval)
}

// @Summary      Glucose event stream
// @Description  Server-Sent Events: one "init" event, then "glucose" readings and periodic "status" events.
// @Tags         stream
// @Produce      text/event-stream
// @Success      200
// @Router       /stream/glucose [get]
func (h *Handler) streamGlucose(c *gin.Context) {
	serveSSE[models.GlucoseReading](h, c, models.FeedGlucose, h.services.Glucose, h.cfg.GlucoseStatusInterval)
}

func serveSSE[T feed.Stamped](h *Handler, c *gin.Context, feedName string, src source[T], statusEvery time.Duration) {
	v := attach(src, h.cfg.StreamBuffer)
	defer v.detach()

	if h.log != nil {
		h.log.Debugw("sse_viewer_attached", "feed", feedName, "viewer", v.id)
		defer h.log.Debugw("sse_viewer_detached", "feed", feedName, "viewer", v.id)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(eventInit, envelope{Type: eventInit, Data: v.init})
	c.Writer.Flush()

	status := time.NewTicker(statusEvery)
	defer status.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case r := <-v.readings:
			c.SSEvent(feedName, envelope{Type: feedName, Data: r})
			return true
		case <-status.C:
			c.SSEvent(eventStatus, envelope{Type: eventStatus, Data: statusOfSource(src)})
			return true
		}
	})
}
