package handler

import (
	"github.com/gin-gonic/gin"

	"asymmetricbridge/internal/repository"
)

type HistoryHandler struct {
	History    repository.HistoryRepository
	DataPoints repository.DataPointRepository
}

func (h *HistoryHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/history", h.listHistory)
	r.GET("/api/v1/history/latest", h.latestHistory)
	r.GET("/api/v1/data-points", h.listDataPoints)
	r.GET("/api/v1/data-points/latest", h.latestDataPoints)
}

// @Summary List status transitions
// @Tags history
// @Param domino_id query int false "domino id"
// @Param signal_name query string false "signal name"
// @Param since query string false "RFC3339 or YYYY-MM-DD"
// @Param until query string false "RFC3339 or YYYY-MM-DD"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} map[string]any
// @Router /api/v1/history [get]
func (h *HistoryHandler) listHistory(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.History == nil {
		unavailable(c, "repo")
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSignalHistoryParams{
		Limit:      limit,
		Offset:     offset,
		UserID:     user,
		DominoID:   intQueryPtr(c, "domino_id"),
		SignalName: strQueryPtr(c, "signal_name"),
		Since:      timeQueryPtr(c, "since"),
		Until:      timeQueryPtr(c, "until"),
		OrderBy:    parseOrder(c.Query("order_by"), map[string]string{"changed_at": "changed_at", "domino_id": "domino_id"}),
		Asc:        boolQueryPtr(c, "asc"),
	}
	items, err := h.History.ListSignalHistory(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	total, err := h.History.CountSignalHistory(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Latest transition per signal
// @Tags history
// @Success 200 {object} map[string]any
// @Router /api/v1/history/latest [get]
func (h *HistoryHandler) latestHistory(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.History == nil {
		unavailable(c, "repo")
		return
	}
	items, err := h.History.ListLatestSignalHistory(c.Request.Context(), user)
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary List stored signal readings
// @Tags history
// @Param domino_id query int false "domino id"
// @Param signal_name query string false "signal name"
// @Param since query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} map[string]any
// @Router /api/v1/data-points [get]
func (h *HistoryHandler) listDataPoints(c *gin.Context) {
	if h.DataPoints == nil {
		unavailable(c, "repo")
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	items, err := h.DataPoints.ListSignalDataPoints(c.Request.Context(), repository.ListSignalDataPointsParams{
		Limit:      limit,
		Offset:     offset,
		DominoID:   intQueryPtr(c, "domino_id"),
		SignalName: strQueryPtr(c, "signal_name"),
		Since:      timeQueryPtr(c, "since"),
		OrderBy:    "date",
		Asc:        boolQueryPtr(c, "asc"),
	})
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, int64(len(items))))
}

// @Summary Newest reading per signal
// @Tags history
// @Success 200 {object} map[string]any
// @Router /api/v1/data-points/latest [get]
func (h *HistoryHandler) latestDataPoints(c *gin.Context) {
	if h.DataPoints == nil {
		unavailable(c, "repo")
		return
	}
	items, err := h.DataPoints.ListLatestSignalDataPoints(c.Request.Context())
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, nil)
}
