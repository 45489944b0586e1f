package handlers

import (
	"net/http"

	"vitals_overlay/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errLoadSettings  = "failed to load settings"
	errSaveSettings  = "failed to save settings"
	errClearSettings = "failed to clear settings"
)

// SettingsView is the settings payload. The password itself is never returned.
type SettingsView struct {
	WidgetURL         *string `json:"widget_url"`
	DexcomUsername    *string `json:"dexcom_username"`
	DexcomRegion      *string `json:"dexcom_region"`
	DexcomPasswordSet bool    `json:"dexcom_password_set"`
}

func settingsView(s models.Settings) SettingsView {
	return SettingsView{
		WidgetURL:         s.WidgetURL,
		DexcomUsername:    s.DexcomUsername,
		DexcomRegion:      s.DexcomRegion,
		DexcomPasswordSet: s.DexcomPassword != nil && *s.DexcomPassword != "",
	}
}

// @Summary      Get saved settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  SettingsView
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	s, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSettings, "settings_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, settingsView(s))
}

// @Summary      Update saved settings
// @Description  Partial update; omitted fields are kept, an empty string clears a field.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      models.SettingsUpdate  true  "Fields to change"
// @Success      200   {object}  SettingsView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [post]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var upd models.SettingsUpdate
	if ok := h.bindJSONOrBadRequest(c, &upd); !ok {
		return
	}
	s, err := h.services.Settings.Update(c.Request.Context(), upd)
	if err != nil {
		h.respondFeedError(c, err, errSaveSettings, "settings_save_failed")
		return
	}
	c.JSON(http.StatusOK, settingsView(s))
}

// @Summary      Clear saved settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [delete]
// @Security     BearerAuth
func (h *Handler) clearSettings(c *gin.Context) {
	if err := h.services.Settings.Clear(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errClearSettings, "settings_clear_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
