package handlers

import (
	"net/http"

	"vitals_overlay/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	statusOK           = "ok"
	statusConnected    = "connected"
	statusDisconnected = "disconnected"

	errConnectHeartRate = "failed to connect heart-rate feed"
	errConnectGlucose   = "failed to connect glucose feed"
)

// ConnectHeartRateRequest is the heart-rate connect payload.
type ConnectHeartRateRequest struct {
	// Widget page URL; must contain the widget UUID
	WidgetURL string `json:"widget_url" binding:"required" example:"https://app.stromno.com/widget/view/123e4567-e89b-12d3-a456-426614174000"`
}

// ConnectGlucoseRequest is the glucose connect payload.
type ConnectGlucoseRequest struct {
	Username string `json:"username" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required"`
	// Share region. Allowed: us, ous
	Region string `json:"region" binding:"required" example:"us"`
}

// FeedStatus is the status endpoint payload.
type FeedStatus[T any] struct {
	State       models.ConnectionState `json:"state"`
	IsConnected bool                   `json:"is_connected"`
	Current     *T                     `json:"current"`
	HistoryLen  int                    `json:"history_len"`
	Subscribers int                    `json:"subscribers"`
}

func statusOf[T any](snap models.FeedSnapshot[T]) FeedStatus[T] {
	return FeedStatus[T]{
		State:       snap.State,
		IsConnected: snap.IsConnected,
		Current:     snap.Current,
		HistoryLen:  len(snap.History),
		Subscribers: snap.Subscribers,
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Connect heart-rate feed
// @Description  Resolves the widget and starts streaming. The URL is saved for auto-connect.
// @Tags         heartrate
// @Accept       json
// @Produce      json
// @Param        body  body      ConnectHeartRateRequest  true  "Widget URL"
// @Success      200   {object}  map[string]interface{}   "status, feed"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/heartrate/connect [post]
// @Security     BearerAuth
func (h *Handler) connectHeartRate(c *gin.Context) {
	var req ConnectHeartRateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.ConnectHeartRate(c.Request.Context(), req.WidgetURL); err != nil {
		h.respondFeedError(c, err, errConnectHeartRate, "heartrate_connect_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusConnected,
		"feed":   statusOf(h.services.HeartRate.Snapshot()),
	})
}

// @Summary      Disconnect heart-rate feed
// @Tags         heartrate
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/heartrate/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnectHeartRate(c *gin.Context) {
	h.services.HeartRate.Disconnect()
	c.JSON(http.StatusOK, gin.H{"status": statusDisconnected})
}

// @Summary      Heart-rate feed status
// @Tags         heartrate
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "state, is_connected, current, history_len, subscribers"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/heartrate/status [get]
// @Security     BearerAuth
func (h *Handler) heartRateStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusOf(h.services.HeartRate.Snapshot()))
}

// @Summary      Connect glucose feed
// @Description  Logs in to the share service, validates the session with one poll and starts polling. Credentials are saved for auto-connect.
// @Tags         glucose
// @Accept       json
// @Produce      json
// @Param        body  body      ConnectGlucoseRequest   true  "Share credentials"
// @Success      200   {object}  map[string]interface{}  "status, feed"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/glucose/connect [post]
// @Security     BearerAuth
func (h *Handler) connectGlucose(c *gin.Context) {
	var req ConnectGlucoseRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	creds := models.DexcomCredentials{Username: req.Username, Password: req.Password, Region: req.Region}
	if err := h.services.ConnectGlucose(c.Request.Context(), creds); err != nil {
		h.respondFeedError(c, err, errConnectGlucose, "glucose_connect_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusConnected,
		"feed":   statusOf(h.services.Glucose.Snapshot()),
	})
}

// @Summary      Disconnect glucose feed
// @Tags         glucose
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/glucose/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnectGlucose(c *gin.Context) {
	h.services.Glucose.Disconnect()
	c.JSON(http.StatusOK, gin.H{"status": statusDisconnected})
}

// @Summary      Glucose feed status
// @Tags         glucose
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "state, is_connected, current, history_len, subscribers"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/glucose/status [get]
// @Security     BearerAuth
func (h *Handler) glucoseStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusOf(h.services.Glucose.Snapshot()))
}
