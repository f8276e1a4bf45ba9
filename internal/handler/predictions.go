package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/prediction"
	"asymmetricbridge/internal/repository"
)

type PredictionHandler struct {
	Service *prediction.Service
	Repo    repository.PredictionRepository
}

func (h *PredictionHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/predictions")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/stats", h.stats)
	g.GET("/:id", h.get)
	g.POST("/:id/score", h.score)
}

// @Summary Create a prediction
// @Tags predictions
// @Param body body prediction.CreateParams true "prediction"
// @Success 200 {object} map[string]any
// @Router /api/v1/predictions [post]
func (h *PredictionHandler) create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Service == nil {
		unavailable(c, "prediction service")
		return
	}
	var req prediction.CreateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.UserID = user
	item, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		var verr *prediction.ValidationError
		if errors.As(err, &verr) {
			Error(c, http.StatusBadRequest, verr.Error(), map[string]any{"field": verr.Field})
			return
		}
		upstream(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary List predictions
// @Tags predictions
// @Param domino_id query int false "domino id"
// @Param signal_name query string false "signal name"
// @Param pending query bool false "only unscored"
// @Success 200 {object} map[string]any
// @Router /api/v1/predictions [get]
func (h *PredictionHandler) list(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Repo == nil {
		unavailable(c, "repo")
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListPredictionsParams{
		Limit:      limit,
		Offset:     offset,
		UserID:     &user,
		DominoID:   intQueryPtr(c, "domino_id"),
		SignalName: strQueryPtr(c, "signal_name"),
		Pending:    boolQueryPtr(c, "pending"),
		OrderBy:    parseOrder(c.Query("order_by"), map[string]string{"created_at": "created_at", "target_date": "target_date"}),
		Asc:        boolQueryPtr(c, "asc"),
	}
	items, err := h.Repo.ListPredictions(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	total, err := h.Repo.CountPredictions(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// owned loads a prediction and hides rows that belong to another user.
func (h *PredictionHandler) owned(c *gin.Context) (*models.Prediction, bool) {
	user, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	if h.Repo == nil {
		unavailable(c, "repo")
		return nil, false
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return nil, false
	}
	item, err := h.Repo.GetPredictionByID(c.Request.Context(), id)
	if err != nil {
		upstream(c, err)
		return nil, false
	}
	if item == nil || item.UserID != user {
		Error(c, http.StatusNotFound, "prediction not found", nil)
		return nil, false
	}
	return item, true
}

// @Summary Get a prediction
// @Tags predictions
// @Param id path string true "prediction id"
// @Success 200 {object} map[string]any
// @Router /api/v1/predictions/{id} [get]
func (h *PredictionHandler) get(c *gin.Context) {
	item, ok := h.owned(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

// @Summary Score a prediction if its target date has passed
// @Tags predictions
// @Param id path string true "prediction id"
// @Success 200 {object} map[string]any
// @Router /api/v1/predictions/{id}/score [post]
func (h *PredictionHandler) score(c *gin.Context) {
	item, ok := h.owned(c)
	if !ok {
		return
	}
	if h.Service == nil {
		unavailable(c, "prediction service")
		return
	}
	updated, ev, err := h.Service.ScoreOne(c.Request.Context(), item.ID)
	switch {
	case errors.Is(err, repository.ErrAlreadyScored):
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	case errors.Is(err, prediction.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
		return
	case err != nil:
		upstream(c, err)
		return
	}
	Ok(c, gin.H{"prediction": updated, "evaluation": ev}, nil)
}

// @Summary Prediction accuracy summary
// @Tags predictions
// @Success 200 {object} prediction.Stats
// @Router /api/v1/predictions/stats [get]
func (h *PredictionHandler) stats(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Service == nil {
		unavailable(c, "prediction service")
		return
	}
	st, err := h.Service.Stats(c.Request.Context(), user)
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, st, nil)
}
