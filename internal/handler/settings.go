package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"asymmetricbridge/internal/repository"
	"asymmetricbridge/internal/service"
)

type SettingsHandler struct {
	Repo     repository.SettingsRepository
	Settings *service.SystemSettingsService
}

type putSwitchRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/settings")
	g.GET("", h.list)
	g.GET("/switches", h.listSwitches)
	g.PUT("/:key", h.putSwitch)
}

// switchKey accepts "reconcile" or "feature.reconcile".
func switchKey(raw string) string {
	key := strings.TrimSpace(raw)
	if key == "" || strings.HasPrefix(key, "feature.") {
		return key
	}
	return "feature." + key
}

// @Summary List stored settings rows
// @Tags settings
// @Param prefix query string false "key prefix"
// @Success 200 {object} map[string]any
// @Router /api/v1/settings [get]
func (h *SettingsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		unavailable(c, "repo")
		return
	}
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSystemSettingsParams{
		Limit:   limit,
		Offset:  offset,
		Prefix:  strQueryPtr(c, "prefix"),
		OrderBy: "key",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListSystemSettings(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	total, err := h.Repo.CountSystemSettings(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary List feature switches with effective values
// @Tags settings
// @Success 200 {object} map[string]any
// @Router /api/v1/settings/switches [get]
func (h *SettingsHandler) listSwitches(c *gin.Context) {
	if h.Settings == nil {
		unavailable(c, "settings service")
		return
	}
	items, err := h.Settings.Switches(c.Request.Context())
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Toggle a feature switch
// @Tags settings
// @Param key path string true "switch key"
// @Param body body putSwitchRequest true "enabled flag"
// @Success 200 {object} map[string]any
// @Router /api/v1/settings/{key} [put]
func (h *SettingsHandler) putSwitch(c *gin.Context) {
	if h.Settings == nil {
		unavailable(c, "settings service")
		return
	}
	key := switchKey(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Settings.SetEnabled(c.Request.Context(), key, *req.Enabled); err != nil {
		if errors.Is(err, service.ErrUnknownFeature) {
			Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		upstream(c, err)
		return
	}
	Ok(c, map[string]any{
		"key":     key,
		"enabled": *req.Enabled,
	}, nil)
}
